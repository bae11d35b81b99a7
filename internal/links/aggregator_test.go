package links

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"
)

type testNote struct {
	path  string
	links []string
	tags  []string
}

type memoryCache struct {
	files      map[string]FileMetadata
	resources  map[string]struct{}
	resolved   LinkIndex
	unresolved LinkIndex
}

func newMemoryCache(notes []testNote, resources ...string) *memoryCache {
	c := &memoryCache{
		files:      make(map[string]FileMetadata, len(notes)),
		resources:  make(map[string]struct{}, len(resources)),
		resolved:   make(LinkIndex),
		unresolved: make(LinkIndex),
	}
	for _, r := range resources {
		c.resources[r] = struct{}{}
	}
	for _, n := range notes {
		c.files[n.path] = FileMetadata{Path: n.path, Links: n.links, Tags: n.tags}
	}
	for _, n := range notes {
		c.resolved[n.path] = make(map[string]int)
		c.unresolved[n.path] = make(map[string]int)
		for _, link := range n.links {
			res := c.ResolveLink(Normalize(link), n.path)
			if res.Exists() {
				c.resolved[n.path][res.Path]++
				continue
			}
			c.unresolved[n.path][Normalize(link)]++
		}
	}
	return c
}

func (c *memoryCache) FileCache(path string) (FileMetadata, bool) {
	meta, ok := c.files[path]
	return meta, ok
}

func (c *memoryCache) ResolvedLinks() LinkIndex   { return c.resolved }
func (c *memoryCache) UnresolvedLinks() LinkIndex { return c.unresolved }

func (c *memoryCache) ResolveLink(linkText, _ string) Resolution {
	target := Normalize(linkText)
	if _, ok := c.files[target+".md"]; ok {
		return Resolution{Kind: Document, Path: target + ".md"}
	}
	if _, ok := c.files[target]; ok {
		return Resolution{Kind: Document, Path: target}
	}
	if _, ok := c.resources[target]; ok {
		return Resolution{Kind: Resource, Path: target}
	}
	return Resolution{Kind: Missing}
}

func (c *memoryCache) MarkdownFiles() []string {
	return sortedKeys(c.files)
}

func linkTexts(refs []LinkRef) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.LinkText)
	}
	return out
}

func TestAggregateThreeCycle(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "A.md", links: []string{"B"}},
		{path: "B.md", links: []string{"C"}},
		{path: "C.md", links: []string{"A"}},
	})

	result := NewAggregator(cache, nil).Aggregate("A.md", Options{})

	if got := linkTexts(result.ForwardConnected); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("expected forward links [B], got %v", got)
	}
	if got := linkTexts(result.Backward); !reflect.DeepEqual(got, []string{"C"}) {
		t.Fatalf("expected backward links [C], got %v", got)
	}
	if len(result.ResolvedTwoHop) != 1 {
		t.Fatalf("expected one resolved two-hop group, got %+v", result.ResolvedTwoHop)
	}
	group := result.ResolvedTwoHop[0]
	if group.Link.LinkText != "B.md" {
		t.Fatalf("expected group via B.md, got %q", group.Link.LinkText)
	}
	if got := linkTexts(group.Members); !reflect.DeepEqual(got, []string{"C"}) {
		t.Fatalf("expected members [C], got %v", got)
	}
	if len(result.UnresolvedTwoHop) != 0 || len(result.NewLinks) != 0 {
		t.Fatalf("expected no unresolved output, got %+v / %+v", result.UnresolvedTwoHop, result.NewLinks)
	}
	if len(result.BacklinkResolvedTwoHop) != 0 {
		t.Fatalf("C only links back to the focal note, got %+v", result.BacklinkResolvedTwoHop)
	}
}

func TestTwoHopExcludesFocalNote(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "A.md", links: []string{"B"}},
		{path: "B.md", links: []string{"A"}},
	})

	result := NewAggregator(cache, nil).Aggregate("A.md", Options{})

	for _, g := range append(result.ResolvedTwoHop, result.UnresolvedTwoHop...) {
		for _, m := range g.Members {
			if m.LinkText == "A" {
				t.Fatalf("focal note listed as two-hop member: %+v", g)
			}
		}
	}
	if len(result.Backward) != 0 {
		t.Fatalf("B is already a forward link, got backward %v", result.Backward)
	}
}

func TestTwoHopCollectsOutgoingAndIncomingNeighbours(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"hub"}},
		{path: "hub.md", links: []string{"child"}},
		{path: "child.md"},
		{path: "peer.md", links: []string{"hub"}},
	})

	result := NewAggregator(cache, nil).Aggregate("focal.md", Options{})
	if len(result.ResolvedTwoHop) != 1 {
		t.Fatalf("expected one group, got %+v", result.ResolvedTwoHop)
	}
	got := linkTexts(result.ResolvedTwoHop[0].Members)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"child", "peer"}) {
		t.Fatalf("expected child and peer via hub, got %v", got)
	}
}

func TestTwoHopSkipsForwardLinksAndDuplicates(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"a", "b"}},
		{path: "a.md", links: []string{"b", "c", "c"}},
		{path: "b.md"},
		{path: "c.md", links: []string{"a"}},
	})

	result := NewAggregator(cache, nil).Aggregate("focal.md", Options{})
	for _, g := range result.ResolvedTwoHop {
		seen := map[string]bool{}
		for _, m := range g.Members {
			if m.LinkText == "b" {
				t.Fatalf("forward link b listed as two-hop member of %s", g.Link.LinkText)
			}
			if seen[m.Key()] {
				t.Fatalf("duplicate member %q in %s", m.LinkText, g.Link.LinkText)
			}
			seen[m.Key()] = true
		}
	}
	if len(result.ResolvedTwoHop) != 1 || result.ResolvedTwoHop[0].Link.LinkText != "a.md" {
		t.Fatalf("expected a single group via a.md, got %+v", result.ResolvedTwoHop)
	}
	if got := linkTexts(result.ResolvedTwoHop[0].Members); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected [c], got %v", got)
	}
}

func TestTwoHopMissingFocalEntry(t *testing.T) {
	cache := newMemoryCache([]testNote{{path: "a.md", links: []string{"b"}}})
	agg := NewAggregator(cache, nil)
	if groups := agg.TwoHopLinks("ghost.md", cache.resolved, nil, nil); groups != nil {
		t.Fatalf("expected no groups for unindexed note, got %+v", groups)
	}
}

func TestForwardLinksCollapseBlockReferences(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"Note#^block1", "Other", "Note#^block2"}},
		{path: "Note.md"},
	})

	forward := NewAggregator(cache, nil).ForwardLinks("focal.md")
	if got := linkTexts(forward); !reflect.DeepEqual(got, []string{"Note#^block1", "Other"}) {
		t.Fatalf("unexpected forward links %v", got)
	}
	if forward[0].Key() != "focal.md|Note" {
		t.Fatalf("expected key without block reference, got %q", forward[0].Key())
	}
}

func TestForwardLinksMissingCache(t *testing.T) {
	cache := newMemoryCache(nil)
	if got := NewAggregator(cache, nil).ForwardLinks("absent.md"); len(got) != 0 {
		t.Fatalf("expected no forward links, got %v", got)
	}
}

func TestSplitByConnectivity(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"exists", "Missing.md", "image.png", "Covered"}},
		{path: "exists.md"},
		{path: "other.md", links: []string{"Covered"}},
	}, "image.png")

	result := NewAggregator(cache, nil).Aggregate("focal.md", Options{})

	if got := linkTexts(result.ForwardConnected); !reflect.DeepEqual(got, []string{"exists", "image.png"}) {
		t.Fatalf("unexpected connected links %v", got)
	}
	if got := linkTexts(result.NewLinks); !reflect.DeepEqual(got, []string{"Missing.md"}) {
		t.Fatalf("unexpected new links %v", got)
	}
	if len(result.UnresolvedTwoHop) != 1 || result.UnresolvedTwoHop[0].Link.LinkText != "Covered" {
		t.Fatalf("expected Covered to be an unresolved two-hop group, got %+v", result.UnresolvedTwoHop)
	}
}

func TestBackwardLinksKeepSelfLoop(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "self.md", links: []string{"other"}},
		{path: "other.md"},
	})
	cache.resolved["self.md"]["self.md"] = 1

	backward := NewAggregator(cache, nil).BackwardLinks("self.md", nil, nil)
	if got := linkTexts(backward); !reflect.DeepEqual(got, []string{"self"}) {
		t.Fatalf("expected self loop to be preserved, got %v", got)
	}
}

func TestBacklinkTwoHopGroups(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"known"}},
		{path: "known.md"},
		{path: "parent.md", links: []string{"focal", "sibling", "known", "nowhere", "focal"}},
		{path: "sibling.md"},
	})

	result := NewAggregator(cache, nil).Aggregate("focal.md", Options{})

	if len(result.BacklinkUnresolvedTwoHop) != 0 {
		t.Fatalf("parent links to focal through the resolved index only, got %+v", result.BacklinkUnresolvedTwoHop)
	}
	if len(result.BacklinkResolvedTwoHop) != 1 {
		t.Fatalf("expected one backlink group, got %+v", result.BacklinkResolvedTwoHop)
	}
	group := result.BacklinkResolvedTwoHop[0]
	if group.Link != NewLinkRef("parent.md", "parent.md") {
		t.Fatalf("expected group keyed by the backlink, got %+v", group.Link)
	}
	if got := linkTexts(group.Members); !reflect.DeepEqual(got, []string{"sibling"}) {
		t.Fatalf("expected [sibling], got %v", got)
	}
}

func TestExcludeOptions(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"hub"}, tags: []string{"#t"}},
		{path: "hub.md", links: []string{"leaf"}},
		{path: "leaf.md", tags: []string{"#t"}},
		{path: "parent.md", links: []string{"focal", "leaf"}},
	})

	agg := NewAggregator(cache, nil)
	full := agg.Aggregate("focal.md", Options{})
	if len(full.ResolvedTwoHop) == 0 || len(full.BacklinkResolvedTwoHop) == 0 || len(full.Tags) == 0 {
		t.Fatalf("expected every pass to produce output, got %+v", full)
	}

	trimmed := agg.Aggregate("focal.md", Options{ExcludeFrontLink: true, ExcludeBacklink: true, ExcludeTag: true})
	if len(trimmed.ResolvedTwoHop)+len(trimmed.UnresolvedTwoHop) != 0 {
		t.Fatalf("front link two-hop should be skipped, got %+v", trimmed.ResolvedTwoHop)
	}
	if len(trimmed.BacklinkResolvedTwoHop)+len(trimmed.BacklinkUnresolvedTwoHop) != 0 {
		t.Fatalf("backlink two-hop should be skipped, got %+v", trimmed.BacklinkResolvedTwoHop)
	}
	if len(trimmed.Tags) != 0 {
		t.Fatalf("tags should be skipped, got %+v", trimmed.Tags)
	}
	if len(trimmed.Backward) != 1 {
		t.Fatalf("backward links are always computed, got %v", trimmed.Backward)
	}
}

func TestExcludesDuplicateLinksAcrossPasses(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "A.md", links: []string{"B", "Ghost"}},
		{path: "B.md", links: []string{"C", "X"}},
		{path: "C.md", links: []string{"A"}},
		{path: "X.md", links: []string{"Ghost"}},
	})
	agg := NewAggregator(cache, nil)

	loose := agg.Aggregate("A.md", Options{})
	if got := memberTexts(loose.ResolvedTwoHop); !reflect.DeepEqual(got, []string{"C", "X"}) {
		t.Fatalf("expected C and X via B without dedup, got %v", got)
	}
	if got := memberTexts(loose.UnresolvedTwoHop); !reflect.DeepEqual(got, []string{"X"}) {
		t.Fatalf("expected X via Ghost without dedup, got %v", got)
	}

	strict := agg.Aggregate("A.md", Options{ExcludesDuplicateLinks: true})
	if got := linkTexts(strict.Backward); !reflect.DeepEqual(got, []string{"C"}) {
		t.Fatalf("expected backward [C], got %v", got)
	}
	if got := memberTexts(strict.UnresolvedTwoHop); !reflect.DeepEqual(got, []string{"X"}) {
		t.Fatalf("unresolved pass runs first and keeps X, got %v", got)
	}
	if got := memberTexts(strict.ResolvedTwoHop); len(got) != 0 {
		t.Fatalf("C and X were claimed by earlier passes, got %v", got)
	}
}

func memberTexts(groups []TwoHopGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, linkTexts(g.Members)...)
	}
	sort.Strings(out)
	return out
}

func TestTagLinks(t *testing.T) {
	t.Run("shared tag", func(t *testing.T) {
		cache := newMemoryCache([]testNote{
			{path: "D1.md", tags: []string{"#project"}},
			{path: "D2.md", tags: []string{"#project"}},
			{path: "focal.md", tags: []string{"#project"}},
			{path: "other.md", tags: []string{"#misc"}},
		})
		groups := NewAggregator(cache, nil).TagLinks("focal.md")
		if len(groups) != 1 || groups[0].Tag != "project" {
			t.Fatalf("expected a single project group, got %+v", groups)
		}
		if got := linkTexts(groups[0].Members); !reflect.DeepEqual(got, []string{"D1", "D2"}) {
			t.Fatalf("expected [D1 D2], got %v", got)
		}
	})

	t.Run("first match wins", func(t *testing.T) {
		cache := newMemoryCache([]testNote{
			{path: "a.md", tags: []string{"#beta", "#alpha"}},
			{path: "b.md", tags: []string{"#alpha"}},
			{path: "focal.md", tags: []string{"#alpha", "#beta"}},
		})
		groups := NewAggregator(cache, nil).TagLinks("focal.md")
		got := make([]string, 0, len(groups))
		for _, g := range groups {
			got = append(got, fmt.Sprintf("%s=%s", g.Tag, strings.Join(linkTexts(g.Members), ",")))
		}
		want := []string{"beta=a", "alpha=b"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("empty groups dropped", func(t *testing.T) {
		cache := newMemoryCache([]testNote{
			{path: "a.md", tags: []string{"#alpha", "#beta"}},
			{path: "focal.md", tags: []string{"#alpha", "#beta"}},
		})
		groups := NewAggregator(cache, nil).TagLinks("focal.md")
		if len(groups) != 1 || groups[0].Tag != "alpha" {
			t.Fatalf("expected only the alpha group, got %+v", groups)
		}
	})

	t.Run("untagged focal", func(t *testing.T) {
		cache := newMemoryCache([]testNote{{path: "focal.md"}, {path: "a.md", tags: []string{"#x"}}})
		if groups := NewAggregator(cache, nil).TagLinks("focal.md"); groups != nil {
			t.Fatalf("expected no groups, got %+v", groups)
		}
	})
}

func TestAggregateIsIdempotent(t *testing.T) {
	cache := randomCache(rand.New(rand.NewSource(7)))
	agg := NewAggregator(cache, nil)
	for _, focal := range cache.MarkdownFiles() {
		first := agg.Aggregate(focal, Options{ExcludesDuplicateLinks: true})
		second := NewAggregator(cache, nil).Aggregate(focal, Options{ExcludesDuplicateLinks: true})
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("results differ for %s:\n%+v\n%+v", focal, first, second)
		}
	}
}

func TestAggregateInvariants(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		cache := randomCache(rand.New(rand.NewSource(seed)))
		agg := NewAggregator(cache, nil)
		for _, focal := range cache.MarkdownFiles() {
			for _, dedup := range []bool{false, true} {
				result := agg.Aggregate(focal, Options{ExcludesDuplicateLinks: dedup})
				checkInvariants(t, cache, result, dedup)
			}
		}
	}
}

func checkInvariants(t *testing.T, cache *memoryCache, result Result, dedup bool) {
	t.Helper()

	agg := NewAggregator(cache, nil)
	forward := agg.ForwardKeys(result.Focal, agg.ForwardLinks(result.Focal))
	focalKey := NewLinkRef(result.Focal, PathToLinkText(result.Focal)).Key()

	owners := make(map[string]string)
	for _, ref := range result.Backward {
		owners[ref.Key()] = "backward"
	}

	groups := map[string][]TwoHopGroup{
		"unresolved":          result.UnresolvedTwoHop,
		"resolved":            result.ResolvedTwoHop,
		"backlink-unresolved": result.BacklinkUnresolvedTwoHop,
		"backlink-resolved":   result.BacklinkResolvedTwoHop,
	}
	for name, list := range groups {
		for _, g := range list {
			if len(g.Members) == 0 {
				t.Fatalf("%s: empty group %+v for %s", name, g.Link, result.Focal)
			}
			within := make(KeySet)
			for _, m := range g.Members {
				key := m.Key()
				if forward.Has(key) {
					t.Fatalf("%s: forward link %q listed as member for %s", name, m.LinkText, result.Focal)
				}
				if key == focalKey {
					t.Fatalf("%s: focal note listed as member of %+v", name, g.Link)
				}
				if within.Has(key) {
					t.Fatalf("%s: duplicate member %q in %+v", name, m.LinkText, g.Link)
				}
				within.add(key)

				if !dedup {
					continue
				}
				// a backlink group may be listed under both indices
				owner := g.Link.Key()
				if prev, ok := owners[key]; ok && prev != owner {
					t.Fatalf("dedup: %q appears in %s and %s for %s", m.LinkText, prev, owner, result.Focal)
				}
				owners[key] = owner
			}
		}
	}
}

// randomCache builds a small vault with random links, some pointing at notes
// that do not exist.
func randomCache(rng *rand.Rand) *memoryCache {
	const size = 7
	targets := []string{"ghost", "phantom"}
	for i := 0; i < size; i++ {
		targets = append(targets, fmt.Sprintf("n%d", i))
	}
	tags := []string{"#red", "#green", "#blue"}

	notes := make([]testNote, 0, size)
	for i := 0; i < size; i++ {
		note := testNote{path: fmt.Sprintf("n%d.md", i)}
		for j := rng.Intn(5); j > 0; j-- {
			link := targets[rng.Intn(len(targets))]
			if rng.Intn(4) == 0 {
				link += fmt.Sprintf("#^b%d", rng.Intn(3))
			}
			note.links = append(note.links, link)
		}
		for j := rng.Intn(3); j > 0; j-- {
			note.tags = append(note.tags, tags[rng.Intn(len(tags))])
		}
		notes = append(notes, note)
	}
	return newMemoryCache(notes)
}

func TestForwardLinksByPathExcludeBackwardAndTwoHop(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "A.md", links: []string{"B.md", "D"}},
		{path: "B.md", links: []string{"A"}},
		{path: "D.md", links: []string{"B"}},
	})

	result := NewAggregator(cache, nil).Aggregate("A.md", Options{})

	if len(result.Backward) != 0 {
		t.Fatalf("B is linked as B.md, got backward %v", linkTexts(result.Backward))
	}
	for _, g := range append(result.ResolvedTwoHop, result.BacklinkResolvedTwoHop...) {
		for _, m := range g.Members {
			if m.LinkText == "B" || m.LinkText == "D" {
				t.Fatalf("forward link %q listed as member of %s", m.LinkText, g.Link.LinkText)
			}
		}
	}
}

func TestTwoHopGroupsFollowLinkOrder(t *testing.T) {
	cache := newMemoryCache([]testNote{
		{path: "focal.md", links: []string{"zeta", "Phantom", "alpha", "Ghost"}},
		{path: "zeta.md", links: []string{"z-child"}},
		{path: "alpha.md", links: []string{"a-child"}},
		{path: "z-child.md"},
		{path: "a-child.md"},
		{path: "other.md", links: []string{"Phantom", "Ghost"}},
	})

	result := NewAggregator(cache, nil).Aggregate("focal.md", Options{})

	var resolved []string
	for _, g := range result.ResolvedTwoHop {
		resolved = append(resolved, g.Link.LinkText)
	}
	if !reflect.DeepEqual(resolved, []string{"zeta.md", "alpha.md"}) {
		t.Fatalf("expected resolved groups in link order, got %v", resolved)
	}

	var unresolved []string
	for _, g := range result.UnresolvedTwoHop {
		unresolved = append(unresolved, g.Link.LinkText)
	}
	if !reflect.DeepEqual(unresolved, []string{"Phantom", "Ghost"}) {
		t.Fatalf("expected unresolved groups in link order, got %v", unresolved)
	}
}
