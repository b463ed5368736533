package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"image"
	"image/color"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"textos/device/video/palette"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[makepalette] error: %s\n", err.Error())
	os.Exit(1)
}

// buildPalette collects the distinct colors of img in scan order. Colors
// are reduced to the precision of the DAC first so that two colors the
// hardware cannot tell apart occupy a single entry. Unused entries are
// taken from palette.Default.
func buildPalette(img image.Image) (palette.Palette, int, error) {
	var (
		pal   = palette.Default
		seen  = make(map[color.RGBA]bool)
		count int
	)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := dacColor(img.At(x, y))
			if seen[c] {
				continue
			}

			if count == palette.Size {
				return pal, 0, fmt.Errorf("image should not contain more than %d colors", palette.Size)
			}

			seen[c] = true
			pal[count] = c
			count++
		}
	}

	return pal, count, nil
}

func dacColor(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{
		R: palette.FromDAC(palette.ToDAC(uint8(r >> 8))),
		G: palette.FromDAC(palette.ToDAC(uint8(g >> 8))),
		B: palette.FromDAC(palette.ToDAC(uint8(b >> 8))),
		A: 255,
	}
}

// genPaletteFile returns the formatted source of a Go file declaring pal as
// varName in package pkgName.
func genPaletteFile(pal palette.Palette, used int, pkgName, varName string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "// Code generated by makepalette. DO NOT EDIT.\n\npackage %s\n\n", pkgName)
	fmt.Fprint(&buf, "import (\n\"image/color\"\n\n\"textos/device/video/palette\"\n)\n\n")
	fmt.Fprintf(&buf, "var %s = palette.Palette{\n", varName)
	for i, c := range pal {
		fmt.Fprintf(&buf, "{R: %d, G: %d, B: %d, A: 255},", c.R, c.G, c.B)
		if i >= used {
			fmt.Fprint(&buf, " // default")
		}
		buf.WriteByte('\n')
	}
	fmt.Fprint(&buf, "}\n")

	return format.Source(buf.Bytes())
}

func runTool(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("makepalette", flag.ContinueOnError)
	pkgName := fs.String("pkg", "kmain", "the package of the generated file")
	varName := fs.String("var-name", "bootPalette", "the name of the variable containing the palette")
	output := fs.String("out", "-", "a file to write the generated palette or - to output to STDOUT")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), "makepalette: convert the colors of a png/jpg or gif image into a text-mode palette\n\n")
		fmt.Fprint(fs.Output(), "Usage: makepalette [options] image\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return errors.New("missing image file argument")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	pal, used, err := buildPalette(img)
	if err != nil {
		return err
	}

	src, err := genPaletteFile(pal, used, *pkgName, *varName)
	if err != nil {
		return err
	}

	if *output == "-" {
		_, err = stdout.Write(src)
		return err
	}

	return os.WriteFile(*output, src, 0o644)
}

func main() {
	if err := runTool(os.Args[1:], os.Stdout); err != nil {
		exit(err)
	}
}
