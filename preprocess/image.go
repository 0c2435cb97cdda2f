package preprocess

import (
	"fmt"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	// register webp decoding for image.Decode
	_ "golang.org/x/image/webp"
)

// LoadImage reads an image file, applying any EXIF orientation so photos
// taken on phones are upright, and returns it as a BGR Mat
func LoadImage(file string) (gocv.Mat, error) {

	img, err := imaging.Open(file, imaging.AutoOrientation(true))

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error reading image %s: %w", file, err)
	}

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error converting image %s: %w", file, err)
	}

	return mat, nil
}

// ImageExtensions are the file extensions treated as images when predicting
// on a directory
var ImageExtensions = map[string]bool{
	".bmp":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}
