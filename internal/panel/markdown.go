// Package panel renders an aggregation result for the terminal, as markdown
// or as JSON.
package panel

import (
	"fmt"
	"strings"

	"github.com/Paintersrp/twohop/internal/links"
)

// Panel is a result together with the previews of its links, keyed by
// LinkRef.Key.
type Panel struct {
	links.Result
	Previews map[string]string `json:"previews,omitempty"`
}

// New pairs result with previews.
func New(result links.Result, previews map[string]string) Panel {
	return Panel{Result: result, Previews: previews}
}

// Markdown renders the panel as a markdown document with one section per
// non-empty category.
func (p Panel) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", displayName(p.Focal))

	if p.Empty() {
		b.WriteString("\nNo related notes.\n")
		return b.String()
	}

	p.writeList(&b, "Links", p.ForwardConnected)
	p.writeList(&b, "New links", p.NewLinks)
	p.writeList(&b, "Back links", p.Backward)

	p.writeGroups(&b, "", p.UnresolvedTwoHop)
	p.writeGroups(&b, "", p.ResolvedTwoHop)
	p.writeGroups(&b, "← ", p.BacklinkUnresolvedTwoHop)
	p.writeGroups(&b, "← ", p.BacklinkResolvedTwoHop)

	for _, group := range p.Tags {
		p.writeList(&b, "#"+group.Tag, group.Members)
	}
	return b.String()
}

func (p Panel) writeList(b *strings.Builder, title string, refs []links.LinkRef) {
	if len(refs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, ref := range refs {
		p.writeItem(b, ref)
	}
}

func (p Panel) writeGroups(b *strings.Builder, prefix string, groups []links.TwoHopGroup) {
	for _, group := range groups {
		title := prefix + displayName(group.Link.LinkText)
		if preview := p.Previews[group.Link.Key()]; preview != "" {
			title += ": " + preview
		}
		p.writeList(b, title, group.Members)
	}
}

func (p Panel) writeItem(b *strings.Builder, ref links.LinkRef) {
	fmt.Fprintf(b, "- [[%s]]", displayName(ref.LinkText))
	if preview := p.Previews[ref.Key()]; preview != "" {
		fmt.Fprintf(b, ": %s", preview)
	}
	b.WriteByte('\n')
}

// Entry is one followable line of the panel.
type Entry struct {
	Ref     links.LinkRef
	Section string
	Preview string
}

// Name returns the text shown for the entry.
func (e Entry) Name() string {
	return displayName(e.Ref.LinkText)
}

// Entries lists every link of the panel under the section it is shown in,
// in the order Markdown writes them.
func (p Panel) Entries() []Entry {
	var out []Entry
	add := func(section string, refs []links.LinkRef) {
		for _, ref := range refs {
			out = append(out, Entry{Ref: ref, Section: section, Preview: p.Previews[ref.Key()]})
		}
	}

	add("Links", p.ForwardConnected)
	add("New links", p.NewLinks)
	add("Back links", p.Backward)
	for _, groups := range []struct {
		prefix string
		groups []links.TwoHopGroup
	}{
		{"", p.UnresolvedTwoHop},
		{"", p.ResolvedTwoHop},
		{"← ", p.BacklinkUnresolvedTwoHop},
		{"← ", p.BacklinkResolvedTwoHop},
	} {
		for _, g := range groups.groups {
			add(groups.prefix+displayName(g.Link.LinkText), g.Members)
		}
	}
	for _, g := range p.Tags {
		add("#"+g.Tag, g.Members)
	}
	return out
}

// displayName drops the markdown extension of a path or link.
func displayName(text string) string {
	return links.PathToLinkText(text)
}

// Counts summarises how many links each part of the panel holds.
type Counts struct {
	Links    int
	New      int
	Back     int
	TwoHop   int
	Backlink int
	Tags     int
}

// Counts returns the number of entries per category. Groups count their
// members.
func (p Panel) Counts() Counts {
	c := Counts{
		Links: len(p.ForwardConnected),
		New:   len(p.NewLinks),
		Back:  len(p.Backward),
	}
	for _, g := range append(append([]links.TwoHopGroup(nil), p.UnresolvedTwoHop...), p.ResolvedTwoHop...) {
		c.TwoHop += len(g.Members)
	}
	for _, g := range append(append([]links.TwoHopGroup(nil), p.BacklinkUnresolvedTwoHop...), p.BacklinkResolvedTwoHop...) {
		c.Backlink += len(g.Members)
	}
	for _, g := range p.Tags {
		c.Tags += len(g.Members)
	}
	return c
}
