package zatca

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

var _ domzatca.Document = (*XMLDocument)(nil)

// XMLDocument documento UBL sobre etree. Las rutas usan nombres con prefijo
// separados por "/" empezando en la raíz: "Invoice/cac:TaxTotal".
type XMLDocument struct {
	doc *etree.Document
}

// ParseXMLDocument lee el texto de una factura. La raíz debe ser Invoice.
func ParseXMLDocument(text string) (*XMLDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: XML vacío", zatca.ErrConstruction)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("%w: XML ilegible: %v", zatca.ErrConstruction, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Invoice" {
		return nil, fmt.Errorf("%w: la raíz del documento no es Invoice", zatca.ErrConstruction)
	}
	return &XMLDocument{doc: doc}, nil
}

// Set escribe values en path. Ver domzatca.Document.
func (d *XMLDocument) Set(path string, appendMode bool, values ...domzatca.Node) error {
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return fmt.Errorf("%w: ruta %q sin elemento padre", zatca.ErrDocumentMutation, path)
	}
	parent, err := d.resolve(segments[:len(segments)-1])
	if err != nil {
		return fmt.Errorf("%w: ruta %q", err, path)
	}
	name := segments[len(segments)-1]

	elems := make([]*etree.Element, 0, len(values))
	for _, v := range values {
		if v.Name != "" && v.Name != name {
			return fmt.Errorf("%w: nodo %s no corresponde a la ruta %q", zatca.ErrDocumentMutation, v.Name, path)
		}
		elems = append(elems, toElement(name, v))
	}

	existing := childrenByTag(parent, name)
	switch {
	case len(existing) == 0:
		for _, e := range elems {
			parent.AddChild(e)
		}
	case appendMode:
		at := existing[len(existing)-1].Index() + 1
		for i, e := range elems {
			parent.InsertChildAt(at+i, e)
		}
	default:
		at := existing[0].Index()
		for _, e := range existing {
			parent.RemoveChild(e)
		}
		for i, e := range elems {
			parent.InsertChildAt(at+i, e)
		}
	}
	return nil
}

// Serialize devuelve el texto del documento tal como está, sin reformatear.
func (d *XMLDocument) Serialize() (string, error) {
	return d.doc.WriteToString()
}

// FindText texto del primer elemento que coincide con path. Admite filtros etree,
// ej. "Invoice/cac:AdditionalDocumentReference[cbc:ID='PIH']/cbc:UUID".
func (d *XMLDocument) FindText(path string) (string, bool) {
	e := d.doc.FindElement("/" + path)
	if e == nil {
		return "", false
	}
	return e.Text(), true
}

// FindAll elementos que coinciden con path.
func (d *XMLDocument) FindAll(path string) []*etree.Element {
	return d.doc.FindElements("/" + path)
}

// indent reformatea el documento con dos espacios; solo se usa al construir.
func (d *XMLDocument) indent() {
	d.doc.Indent(2)
}

func (d *XMLDocument) resolve(segments []string) (*etree.Element, error) {
	cur := d.doc.Root()
	if cur == nil || cur.FullTag() != segments[0] {
		return nil, fmt.Errorf("%w: raíz %q no encontrada", zatca.ErrDocumentMutation, segments[0])
	}
	for _, seg := range segments[1:] {
		next := childrenByTag(cur, seg)
		if len(next) == 0 {
			return nil, fmt.Errorf("%w: elemento %q no encontrado", zatca.ErrDocumentMutation, seg)
		}
		cur = next[0]
	}
	return cur, nil
}

func childrenByTag(parent *etree.Element, fullTag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range parent.ChildElements() {
		if c.FullTag() == fullTag {
			out = append(out, c)
		}
	}
	return out
}

func toElement(name string, n domzatca.Node) *etree.Element {
	e := etree.NewElement(name)
	for _, a := range n.Attrs {
		e.CreateAttr(a.Key, a.Value)
	}
	if n.Text != "" {
		e.SetText(n.Text)
	}
	for _, c := range n.Children {
		e.AddChild(toElement(c.Name, c))
	}
	return e
}
