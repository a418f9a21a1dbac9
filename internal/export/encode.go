package export

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// Physical page of the print document, in millimetres.
const (
	PageWidthMM  = 89.0
	PageHeightMM = 51.0
)

const pageImageName = "card"

// Page describes the document geometry of a PDF artifact.
type Page struct {
	WidthMM     float64
	HeightMM    float64
	Orientation string
	Images      []Placement
}

// Placement is an embedded image rectangle in page units.
type Placement struct {
	X, Y, W, H float64
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeDocument wraps an already encoded PNG into a single landscape page
// sized like a business card, the image filling the page from the origin.
func encodeDocument(pngData []byte, title string) ([]byte, Page, error) {
	// fpdf swaps the declared dimensions for landscape pages.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size: fpdf.SizeType{
			Wd: math.Min(PageWidthMM, PageHeightMM),
			Ht: math.Max(PageWidthMM, PageHeightMM),
		},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("card-term", true)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	w, h := pdf.GetPageSize()
	if math.Abs(w-PageWidthMM) > 0.01 || math.Abs(h-PageHeightMM) > 0.01 {
		return nil, Page{}, fmt.Errorf("unexpected page geometry %.2fx%.2fmm", w, h)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pageImageName, opts, bytes.NewReader(pngData))
	placement := Placement{X: 0, Y: 0, W: w, H: h}
	pdf.ImageOptions(pageImageName, placement.X, placement.Y, placement.W, placement.H, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, Page{}, fmt.Errorf("assemble pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, Page{}, fmt.Errorf("write pdf: %w", err)
	}
	page := Page{
		WidthMM:     w,
		HeightMM:    h,
		Orientation: "landscape",
		Images:      []Placement{placement},
	}
	return buf.Bytes(), page, nil
}
