package model

import (
	"fmt"
	"strings"
)

// Element is an elemental attribute of abilities and characters.
type Element uint8

const (
	ElementNeutral Element = iota
	ElementFire
	ElementWater
	ElementEarth
	ElementAir
	ElementLight
	ElementDark

	elementCount
)

var elementNames = [elementCount]string{"neutral", "fire", "water", "earth", "air", "light", "dark"}

// ElementCount is the number of declared elements.
const ElementCount = int(elementCount)

func (e Element) String() string {
	if e < elementCount {
		return elementNames[e]
	}
	return fmt.Sprintf("element(%d)", e)
}

// Valid reports whether e is a declared element.
func (e Element) Valid() bool {
	return e < elementCount
}

// Elements returns every declared element in declaration order.
func Elements() []Element {
	out := make([]Element, elementCount)
	for i := range out {
		out[i] = Element(i)
	}
	return out
}

// ParseElement converts a case-insensitive name into an Element.
func ParseElement(s string) (Element, error) {
	for i, name := range elementNames {
		if strings.EqualFold(s, name) {
			return Element(i), nil
		}
	}
	return ElementNeutral, fmt.Errorf("unknown element %q", s)
}
