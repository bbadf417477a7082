package locator

import (
	"fmt"
	"strconv"
	"strings"

	"encoding/xml"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// Element represents a node from the Android UI hierarchy dump.
type Element struct {
	Text        string
	ResourceID  string
	ContentDesc string
	ClassName   string
	Bounds      core.Bounds
	Enabled     bool
	Displayed   bool
	Clickable   bool
	Depth       int
	Children    []*Element
}

// ParseHierarchy parses an Android UI hierarchy XML dump into a flat list of
// elements in document order.
func ParseHierarchy(xmlData string) ([]*Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var elements []*Element
	foundHierarchy := false
	var parseElement func() (*Element, error)

	parseElement = func() (*Element, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "hierarchy" {
					foundHierarchy = true
					continue
				}

				elem := &Element{
					ClassName: t.Name.Local,
				}

				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "text":
						elem.Text = attr.Value
					case "resource-id":
						elem.ResourceID = attr.Value
					case "content-desc":
						elem.ContentDesc = attr.Value
					case "class":
						elem.ClassName = attr.Value
					case "bounds":
						elem.Bounds = parseBounds(attr.Value)
					case "enabled":
						elem.Enabled = attr.Value == "true"
					case "displayed":
						elem.Displayed = attr.Value != "false"
					case "clickable":
						elem.Clickable = attr.Value == "true"
					}
				}

				// Parse children
				for {
					child, err := parseElement()
					if err != nil || child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
				}

				return elem, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement()
		if err != nil {
			if err.Error() != "EOF" {
				parseErr = err
			}
			break
		}
		if elem != nil {
			elements = append(elements, flattenElement(elem, 0)...)
		}
	}

	if parseErr != nil && len(elements) == 0 {
		return nil, parseErr
	}

	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}

	return elements, nil
}

// flattenElement flattens a tree of elements into a list, setting depth.
func flattenElement(elem *Element, depth int) []*Element {
	elem.Depth = depth
	result := []*Element{elem}
	for _, child := range elem.Children {
		result = append(result, flattenElement(child, depth+1)...)
	}
	return result
}

// parseBounds parses the Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) core.Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return core.Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}
