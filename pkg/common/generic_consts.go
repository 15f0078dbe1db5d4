package common

const (
	// EnableStr is a constant for the string "enable".
	EnableStr = "enable"
	// DisableStr is a constant for the string "disable".
	DisableStr = "disable"
)
