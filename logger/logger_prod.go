//go:build !dev
// +build !dev

package logger

const defaultLevel = "INFO"

func HandleError(err error) {
	Get().Error(err.Error())
}
