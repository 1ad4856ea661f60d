package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const documentPart = "word/document.xml"

// docx reads the main document part of an OOXML file, one line per paragraph.
func docx(path string) (text string, err error) {
	var r *zip.ReadCloser
	r, err = zip.OpenReader(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open DOCX file: %s", path)
		return text, err
	}
	defer r.Close()

	var part *zip.File
	for _, f := range r.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		err = errors.Errorf("%s has no %s", path, documentPart)
		return text, err
	}

	var rc io.ReadCloser
	rc, err = part.Open()
	if err != nil {
		err = errors.Wrapf(err, "failed to open %s", documentPart)
		return text, err
	}
	defer rc.Close()

	text, err = documentText(rc)
	return text, err
}

// documentText walks WordprocessingML and keeps run text, tabs and breaks.
func documentText(r io.Reader) (text string, err error) {
	var (
		b      strings.Builder
		inText bool
		inTabs bool
	)

	dec := xml.NewDecoder(r)
	for {
		var tok xml.Token
		tok, err = dec.Token()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			err = errors.Wrap(err, "failed to parse DOCX document")
			return text, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				// Tab stops inside paragraph properties are not text.
				if !inTabs {
					b.WriteByte('\t')
				}
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	text = b.String()
	return text, err
}
