package page

import "github.com/beevik/etree"

// Heading is a level-1 heading element in document order. ObjectID may be
// empty when the host did not assign the element an object ID; such
// headings cannot be link targets.
type Heading struct {
	ObjectID string
	Title    string

	el *etree.Element
}

// SpacingResult reports what NormalizeSpacing touched.
type SpacingResult struct {
	StyleDefs int
	Headings  int
	Overrides int
}

// headingStyleIndexes returns the quick style definition elements named
// HeadingStyle, keyed by their definition index.
func headingStyleIndexes(c *Content) map[string]*etree.Element {
	defs := map[string]*etree.Element{}
	for _, def := range c.root.FindElements("//one:QuickStyleDef") {
		if def.SelectAttrValue("name", "") != HeadingStyle {
			continue
		}
		if index := def.SelectAttrValue("index", ""); index != "" {
			defs[index] = def
		}
	}
	return defs
}

// Headings collects the top-level outline elements styled as level-1
// headings, in document order. A page without a heading style legitimately
// yields an empty slice.
func Headings(c *Content) []Heading {
	defs := headingStyleIndexes(c)
	if len(defs) == 0 {
		return nil
	}
	var headings []Heading
	for _, oe := range topLevelOutlineElements(c) {
		if _, ok := defs[oe.SelectAttrValue("quickStyleIndex", "")]; !ok {
			continue
		}
		title := ""
		if t := oe.SelectElement("one:T"); t != nil {
			title = t.Text()
		}
		headings = append(headings, Heading{
			ObjectID: oe.SelectAttrValue("objectID", ""),
			Title:    title,
			el:       oe,
		})
	}
	return headings
}

// NormalizeSpacing sets the heading style's space-before to the normalized
// constant and strips the element-level override from every heading, since
// element overrides shadow the style default in the host's rendering model.
// Zero heading style definitions leave the document untouched.
func NormalizeSpacing(c *Content) SpacingResult {
	var res SpacingResult
	defs := headingStyleIndexes(c)
	for _, def := range defs {
		def.CreateAttr("spaceBefore", HeadingSpaceBefore)
		res.StyleDefs++
	}
	if res.StyleDefs == 0 {
		return res
	}
	for _, oe := range topLevelOutlineElements(c) {
		if _, ok := defs[oe.SelectAttrValue("quickStyleIndex", "")]; !ok {
			continue
		}
		res.Headings++
		if oe.RemoveAttr("spaceBefore") != nil {
			res.Overrides++
		}
	}
	return res
}

// topLevelOutlineElements returns the one:OE elements sitting directly in
// an outline's child list, skipping nested indent levels.
func topLevelOutlineElements(c *Content) []*etree.Element {
	var elements []*etree.Element
	for _, outline := range c.root.FindElements("//one:Outline") {
		children := outline.SelectElement("one:OEChildren")
		if children == nil {
			continue
		}
		for _, oe := range children.ChildElements() {
			if oe.Space == "one" && oe.Tag == "OE" {
				elements = append(elements, oe)
			}
		}
	}
	return elements
}
