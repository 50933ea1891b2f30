//go:build dev
// +build dev

package logger

import "fmt"

const defaultLevel = "DEBUG"

func HandleError(err error) {
	fmt.Printf("Dev Mode - Error: %v\n", err)
	Get().Error("dev error", "error", err)
}
