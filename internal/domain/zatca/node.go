// Package zatca contiene el motor de cálculo de la factura simplificada ZATCA:
// impuestos por ítem, totales de la factura y las mutaciones que los escriben
// en el documento UBL. No depende de ninguna librería XML concreta.
package zatca

import "github.com/jhoicas/fatoora-api/pkg/zatca"

// Attr atributo de un nodo, en el orden en que se escribe.
type Attr struct {
	Key   string
	Value string
}

// Node fragmento ordenado del documento: nombre con prefijo (ej. "cbc:ID"),
// atributos, texto y nodos hijos.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []Node
}

// El construye un nodo contenedor.
func El(name string, children ...Node) Node {
	return Node{Name: name, Children: children}
}

// Leaf construye un nodo de texto con atributos opcionales.
func Leaf(name, text string, attrs ...Attr) Node {
	return Node{Name: name, Text: text, Attrs: attrs}
}

// Amount construye un monto con currencyID SAR.
func Amount(name, value string) Node {
	return Leaf(name, value, Attr{Key: "currencyID", Value: zatca.CurrencySAR})
}

// Child devuelve el primer hijo directo con ese nombre.
func (n Node) Child(name string) (Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return Node{}, false
}

// ChildrenNamed devuelve todos los hijos directos con ese nombre.
func (n Node) ChildrenNamed(name string) []Node {
	var out []Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Attr devuelve el valor de un atributo.
func (n Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Document puerto de escritura sobre el documento UBL.
//
// Set escribe values en path ("Invoice/cac:TaxTotal"). Con appendMode=true los
// nodos se agregan como hermanos después de los existentes; con appendMode=false
// reemplazan a los existentes en su posición, o se crean como últimos hijos del padre.
// Serialize devuelve el texto actual del documento.
type Document interface {
	Set(path string, appendMode bool, values ...Node) error
	Serialize() (string, error)
}
