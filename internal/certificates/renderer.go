package certificates

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Landscape A4 at 150 DPI.
const (
	canvasWidth  = 1754
	canvasHeight = 1240

	outerBorderInset = 40.0
	innerBorderInset = 56.0
)

const (
	titleFontSize     = 72.0
	recipientFontSize = 56.0
	bodyFontSize      = 30.0
	detailFontSize    = 22.0
)

var (
	parchmentColor = color.RGBA{250, 247, 240, 255}
	borderColor    = color.RGBA{120, 94, 38, 255}
	titleColor     = color.RGBA{60, 48, 30, 255}
	inkColor       = color.RGBA{40, 40, 45, 255}
	accentColor    = color.RGBA{152, 120, 54, 255}
)

// Data carries everything the fixed certificate layout displays.
type Data struct {
	RecipientName     string
	CourseTitle       string
	InstructorName    string
	CertificateNumber string
	IssuedAt          time.Time
}

// Renderer draws completion certificates onto a landscape canvas and encodes
// them as PNG. FontPath optionally points at a TTF on disk; when it is empty
// or unloadable the built-in bitmap face is used instead.
type Renderer struct {
	FontPath string
}

func NewRenderer(fontPath string) *Renderer {
	return &Renderer{FontPath: fontPath}
}

// Render produces the certificate artifact bytes.
func (r *Renderer) Render(data Data) ([]byte, error) {
	if data.RecipientName == "" || data.CertificateNumber == "" {
		return nil, fmt.Errorf("certificates: incomplete render data")
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetColor(parchmentColor)
	dc.Clear()

	r.drawBorders(dc)
	r.drawBody(dc, data)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("certificates: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawBorders(dc *gg.Context) {
	dc.SetColor(borderColor)
	dc.SetLineWidth(6)
	dc.DrawRectangle(outerBorderInset, outerBorderInset,
		canvasWidth-2*outerBorderInset, canvasHeight-2*outerBorderInset)
	dc.Stroke()

	dc.SetLineWidth(2)
	dc.DrawRectangle(innerBorderInset, innerBorderInset,
		canvasWidth-2*innerBorderInset, canvasHeight-2*innerBorderInset)
	dc.Stroke()
}

func (r *Renderer) drawBody(dc *gg.Context, data Data) {
	centerX := float64(canvasWidth) / 2

	r.loadFont(dc, titleFontSize)
	dc.SetColor(titleColor)
	dc.DrawStringAnchored("Certificate of Completion", centerX, 240, 0.5, 0.5)

	r.loadFont(dc, bodyFontSize)
	dc.SetColor(inkColor)
	dc.DrawStringAnchored("This certifies that", centerX, 400, 0.5, 0.5)

	r.loadFont(dc, recipientFontSize)
	dc.SetColor(accentColor)
	dc.DrawStringAnchored(data.RecipientName, centerX, 500, 0.5, 0.5)

	// Rule under the recipient name
	nameWidth, _ := dc.MeasureString(data.RecipientName)
	dc.SetLineWidth(2)
	dc.DrawLine(centerX-nameWidth/2-40, 545, centerX+nameWidth/2+40, 545)
	dc.Stroke()

	r.loadFont(dc, bodyFontSize)
	dc.SetColor(inkColor)
	dc.DrawStringAnchored("has successfully completed the course", centerX, 640, 0.5, 0.5)

	r.loadFont(dc, recipientFontSize-12)
	dc.SetColor(titleColor)
	dc.DrawStringAnchored(data.CourseTitle, centerX, 730, 0.5, 0.5)

	r.loadFont(dc, bodyFontSize)
	dc.SetColor(inkColor)
	dc.DrawStringAnchored(fmt.Sprintf("Instructor: %s", data.InstructorName), centerX, 860, 0.5, 0.5)

	r.loadFont(dc, detailFontSize)
	dc.DrawStringAnchored(
		fmt.Sprintf("Issued on %s", data.IssuedAt.Format("January 2, 2006")),
		centerX, 960, 0.5, 0.5)
	dc.SetColor(accentColor)
	dc.DrawStringAnchored(
		fmt.Sprintf("Certificate No. %s", data.CertificateNumber),
		centerX, canvasHeight-120, 0.5, 0.5)
}

// loadFont sets the face for the given size, falling back to the built-in
// bitmap face when no TTF is configured or parsing fails.
func (r *Renderer) loadFont(dc *gg.Context, size float64) {
	if r.FontPath != "" {
		if err := dc.LoadFontFace(r.FontPath, size); err == nil {
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}
