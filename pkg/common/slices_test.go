package common

import (
	"math"
	"testing"
)

func TestSliceContains(t *testing.T) {
	slice := []string{"apple", "banana", "cherry"}
	if !SliceContains(slice, "banana") {
		t.Errorf("SliceContains() = false, want true")
	}
	if SliceContains(slice, "kiwi") {
		t.Errorf("SliceContains() = true, want false")
	}
}

func TestFloat64SliceToString(t *testing.T) {
	got := Float64SliceToString([]float64{4, 2, 0.5, -1}, ",")
	if got != "4,2,0.5,-1" {
		t.Errorf("Float64SliceToString() = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{8, "8"},
		{-3, "-3"},
		{2.5, "2.5"},
		{math.Copysign(0, -1), "0"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123", true},
		{" -4 ", true},
		{"123.45", true},
		{"", false},
		{"abc", false},
		{"Inf", false},
		{"NaN", false},
		{"0x10", false},
		{"1e3", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := IsNumber(tt.input); result != tt.expected {
				t.Errorf("IsNumber(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
