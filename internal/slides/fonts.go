package slides

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Platform locations tried after any configured font paths.
var platformFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"C:/Windows/Fonts/arial.ttf",
}

// resolveFace walks an ordered list of strategies and returns the first
// face that loads: configured paths, then platform paths, then the
// embedded Go Regular face. Font resolution never fails a slide.
func resolveFace(paths []string, size float64) font.Face {
	for _, p := range paths {
		if face, err := loadFaceFile(p, size); err == nil {
			return face
		}
	}
	for _, p := range platformFontPaths {
		if face, err := loadFaceFile(p, size); err == nil {
			return face
		}
	}
	return builtinFace(size)
}

func loadFaceFile(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func builtinFace(size float64) font.Face {
	ft, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// goregular is embedded and known-good.
		panic(err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic(err)
	}
	return face
}
