//go:build !govips || !cgo

package sticker

func Startup() error {
	return nil
}

func Shutdown() {}
