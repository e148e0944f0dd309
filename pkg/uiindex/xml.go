package uiindex

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// FromXML flattens a uiautomator hierarchy dump into nodes in pre-order.
// Both dump styles are accepted: <node class="..."> elements and elements
// named after their class. The <hierarchy> root itself is not a node.
func FromXML(r io.Reader) ([]Node, error) {
	decoder := xml.NewDecoder(r)

	nodes := make([]Node, 0)
	foundHierarchy := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid hierarchy XML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "hierarchy" {
			foundHierarchy = true
			continue
		}

		var resourceID, text, bounds string
		class := start.Name.Local // Class name is the element tag
		if class == "node" {
			class = ""
		}
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "resource-id":
				resourceID = attr.Value
			case "text":
				text = attr.Value
			case "class":
				class = attr.Value // Override if class attr exists
			case "bounds":
				bounds = attr.Value
			}
		}
		nodes = append(nodes, NewNode(resourceID, text, class, bounds))
	}

	if !foundHierarchy && len(nodes) == 0 {
		return nil, fmt.Errorf("invalid hierarchy XML: no hierarchy element found")
	}
	return nodes, nil
}
