package display

import (
	"bytes"
	_ "embed"
	"image"
	"sync"

	"golang.org/x/image/bmp"
)

//go:embed splash.bmp
var splashBMP []byte

var splash struct {
	once sync.Once
	img  image.Image
	err  error
}

// Splash is the decoded start-up bitmap.
func Splash() (image.Image, error) {
	splash.once.Do(func() {
		splash.img, splash.err = bmp.Decode(bytes.NewReader(splashBMP))
	})
	return splash.img, splash.err
}
