package hocr

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/wudi/imagekit/geo"
)

var hocrTemplate = template.Must(template.New("hocr").Funcs(template.FuncMap{
	"hbbox": func(r geo.Rect) string {
		return fmt.Sprintf("%d %d %d %d", r.X0, r.Y0, r.X1, r.Y1)
	},
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml"{{if .Language}} lang="{{.Language}}"{{end}}>
 <head>
  <title>{{.Title}}</title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name="ocr-system" content="imagekit"/>
  <meta name="ocr-capabilities" content="ocr_page ocr_line ocrx_word"/>
 </head>
 <body>
{{- range .Pages}}
  <div class="ocr_page" id="{{.ID}}" title="image {{.ImageName}}; bbox {{hbbox .BBox}}">
{{- range .Lines}}
   <span class="ocr_line" id="{{.ID}}" title="bbox {{hbbox .BBox}}">
{{- range .Words}}
    <span class="ocrx_word" id="{{.ID}}" title="bbox {{hbbox .BBox}}; x_wconf {{printf "%.0f" .Confidence}}">{{html .Text}}</span>
{{- end}}
   </span>
{{- end}}
  </div>
{{- end}}
 </body>
</html>
`))

// Generate renders the document as hOCR HTML.
func Generate(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render hocr: %w", err)
	}
	return buf.Bytes(), nil
}
