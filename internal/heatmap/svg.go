package heatmap

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (s *svgWriter) printf(format string, args ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func escape(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}

func styleAttrs(st Style) string {
	var b strings.Builder
	fill := st.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(&b, ` fill="%s"`, escape(fill))
	if st.Stroke != "" {
		fmt.Fprintf(&b, ` stroke="%s" stroke-width="%s"`, escape(st.Stroke), formatNum(st.StrokeWidth))
	}
	if st.Opacity > 0 && st.Opacity < 1 {
		fmt.Fprintf(&b, ` opacity="%s"`, formatNum(st.Opacity))
	}
	return b.String()
}

// RenderSVG writes the scene as a standalone SVG document
func RenderSVG(w io.Writer, scene Scene) error {
	s := &svgWriter{w: bufio.NewWriter(w)}

	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif">`+"\n",
		formatNum(scene.Width), formatNum(scene.Height), formatNum(scene.Width), formatNum(scene.Height))
	if scene.Title != "" {
		s.printf("<title>%s</title>\n", escape(scene.Title))
	}
	if scene.Background != "" {
		s.printf(`<rect width="100%%" height="100%%" fill="%s"/>`+"\n", escape(scene.Background))
	}
	s.elements(scene.Elements, "")
	s.printf("</svg>\n")

	if s.err != nil {
		return fmt.Errorf("writing svg: %w", s.err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}

func (s *svgWriter) elements(els []Element, indent string) {
	for _, el := range els {
		switch v := el.(type) {
		case Path:
			s.printf(`%s<path class="%s" d="%s"%s/>`+"\n", indent, v.Class, v.D(), styleAttrs(v.Style))
		case Circle:
			s.printf(`%s<circle class="%s" cx="%s" cy="%s" r="%s"%s/>`+"\n",
				indent, v.Class, formatNum(v.Center.X), formatNum(v.Center.Y), formatNum(v.R), styleAttrs(v.Style))
		case Text:
			weight := ""
			if v.Bold {
				weight = ` font-weight="600"`
			}
			s.printf(`%s<text class="%s" x="%s" y="%s" font-size="%s" text-anchor="%s" fill="%s"%s>%s</text>`+"\n",
				indent, v.Class, formatNum(v.At.X), formatNum(v.At.Y), formatNum(v.Size), v.Anchor, escape(v.Fill), weight, escape(v.Content))
		case Group:
			s.printf(`%s<g class="%s"`, indent, v.Class)
			for _, a := range v.Data {
				s.printf(` data-%s="%s"`, a.Name, escape(a.Value))
			}
			s.printf(">\n")
			s.elements(v.Children, indent+"  ")
			s.printf("%s</g>\n", indent)
		}
	}
}
