package links

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// TwoHopGroup lists the notes reached through an intermediate link.
type TwoHopGroup struct {
	Link    LinkRef   `json:"link"`
	Members []LinkRef `json:"members"`
}

// TagGroup lists the notes sharing a tag with the focal note.
type TagGroup struct {
	Tag     string    `json:"tag"`
	Members []LinkRef `json:"members"`
}

// Options toggles the optional passes of Aggregate.
type Options struct {
	ExcludeFrontLink       bool
	ExcludeBacklink        bool
	ExcludeTag             bool
	ExcludesDuplicateLinks bool
}

// Result is everything derived for one focal note.
type Result struct {
	Focal                    string        `json:"focal"`
	ForwardConnected         []LinkRef     `json:"forwardConnected"`
	NewLinks                 []LinkRef     `json:"newLinks"`
	Backward                 []LinkRef     `json:"backward"`
	UnresolvedTwoHop         []TwoHopGroup `json:"unresolvedTwoHop"`
	ResolvedTwoHop           []TwoHopGroup `json:"resolvedTwoHop"`
	BacklinkUnresolvedTwoHop []TwoHopGroup `json:"backlinkUnresolvedTwoHop"`
	BacklinkResolvedTwoHop   []TwoHopGroup `json:"backlinkResolvedTwoHop"`
	Tags                     []TagGroup    `json:"tags"`
}

// Refs returns every LinkRef of the result that may need a preview, in
// display order.
func (r Result) Refs() []LinkRef {
	var out []LinkRef
	out = append(out, r.ForwardConnected...)
	out = append(out, r.NewLinks...)
	out = append(out, r.Backward...)
	for _, groups := range [][]TwoHopGroup{
		r.UnresolvedTwoHop,
		r.ResolvedTwoHop,
		r.BacklinkUnresolvedTwoHop,
		r.BacklinkResolvedTwoHop,
	} {
		for _, g := range groups {
			out = append(out, g.Link)
			out = append(out, g.Members...)
		}
	}
	for _, g := range r.Tags {
		out = append(out, g.Members...)
	}
	return out
}

// Empty reports whether nothing was found.
func (r Result) Empty() bool {
	return len(r.Refs()) == 0
}

// Aggregator runs link queries against one snapshot of a MetadataCache. It
// holds no state that changes between calls, so Aggregate may be invoked
// repeatedly or concurrently on the same snapshot.
type Aggregator struct {
	cache      MetadataCache
	logger     *log.Logger
	resolved   LinkIndex
	unresolved LinkIndex
	backlinks  ReverseIndex
}

// NewAggregator snapshots the link indices of cache. A nil logger discards
// output.
func NewAggregator(cache MetadataCache, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	resolved := cache.ResolvedLinks()
	return &Aggregator{
		cache:      cache,
		logger:     logger,
		resolved:   resolved,
		unresolved: cache.UnresolvedLinks(),
		backlinks:  resolved.Reverse(),
	}
}

// Aggregate computes the full result for focal.
//
// With ExcludesDuplicateLinks the passes share one Visited context, in this
// order: backward links, unresolved two-hop, resolved two-hop, backlink
// two-hop. Earlier passes win contested paths.
func (a *Aggregator) Aggregate(focal string, opts Options) Result {
	forward := a.ForwardLinks(focal)
	forwardKeys := a.ForwardKeys(focal, forward)

	var visited *Visited
	if opts.ExcludesDuplicateLinks {
		visited = NewVisited()
	}

	result := Result{Focal: focal}
	result.Backward = a.BackwardLinks(focal, forwardKeys, visited)

	if !opts.ExcludeFrontLink {
		result.UnresolvedTwoHop = a.TwoHopLinks(focal, a.unresolved, forwardKeys, visited)
		result.ResolvedTwoHop = a.TwoHopLinks(focal, a.resolved, forwardKeys, visited)
	}

	if !opts.ExcludeBacklink {
		result.BacklinkUnresolvedTwoHop, result.BacklinkResolvedTwoHop = a.BacklinkTwoHopLinks(
			focal,
			result.Backward,
			forwardKeys,
			visited,
		)
	}

	twoHopKeys := make(KeySet)
	for _, groups := range [][]TwoHopGroup{result.UnresolvedTwoHop, result.ResolvedTwoHop} {
		for _, g := range groups {
			twoHopKeys.add(g.Link.Key())
		}
	}
	result.ForwardConnected, result.NewLinks = a.SplitByConnectivity(forward, twoHopKeys)

	if !opts.ExcludeTag {
		result.Tags = a.TagLinks(focal)
	}

	a.logger.Debug(
		"aggregated two-hop links",
		"focal", focal,
		"forward", len(forward),
		"backward", len(result.Backward),
		"twohop", len(result.UnresolvedTwoHop)+len(result.ResolvedTwoHop),
		"backlinkTwohop", len(result.BacklinkUnresolvedTwoHop)+len(result.BacklinkResolvedTwoHop),
		"tags", len(result.Tags),
	)
	return result
}

// ForwardLinks returns the outgoing links of path in first-occurrence order,
// one per key. Notes missing from the cache have no forward links.
func (a *Aggregator) ForwardLinks(path string) []LinkRef {
	meta, ok := a.cache.FileCache(path)
	if !ok {
		a.logger.Debug("missing metadata cache", "path", path)
		return nil
	}

	seen := make(KeySet, len(meta.Links))
	out := make([]LinkRef, 0, len(meta.Links))
	for _, raw := range meta.Links {
		ref := NewLinkRef(path, raw)
		key := ref.Key()
		if seen.Has(key) {
			continue
		}
		seen.add(key)
		out = append(out, ref)
	}
	return out
}

// ForwardKeys returns the keys of forward together with the keys of the
// notes they resolve to. A note linked by path, by markdown link or from a
// subfolder is then excluded the same way as one linked by its name.
func (a *Aggregator) ForwardKeys(focal string, forward []LinkRef) KeySet {
	set := Keys(forward)
	for _, link := range forward {
		if res := a.cache.ResolveLink(link.Target(), link.SourcePath); res.IsDocument() {
			set.add(NewLinkRef(focal, PathToLinkText(res.Path)).Key())
		}
	}
	return set
}

// BackwardLinks returns the notes linking to focal that are not already
// forward links. Every linking source is recorded in visited, including the
// ones skipped as forward links.
func (a *Aggregator) BackwardLinks(focal string, forward KeySet, visited *Visited) []LinkRef {
	var out []LinkRef
	for _, src := range a.backlinks.EdgesTo(focal) {
		visited.Mark(src)
		ref := NewLinkRef(focal, PathToLinkText(src))
		if forward.Has(ref.Key()) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// TwoHopLinks groups the second-degree neighbours of focal in index by the
// forward link they are reached through. Both outgoing (focal→via→x) and
// incoming (focal→via←x) neighbours of each forward link are collected.
func (a *Aggregator) TwoHopLinks(focal string, index LinkIndex, forward KeySet, visited *Visited) []TwoHopGroup {
	if !index.Has(focal) {
		return nil
	}

	direct := a.destinations(focal, index)
	active := make(map[string]struct{}, len(direct))
	for _, dest := range direct {
		active[dest] = struct{}{}
	}

	candidates := make(map[string][]string)
	for _, src := range index.Sources() {
		if src == focal {
			continue
		}
		_, srcActive := active[src]
		for _, dest := range index.EdgesFrom(src) {
			if srcActive && visited.Claim(dest) {
				candidates[src] = append(candidates[src], dest)
			}
			if _, destActive := active[dest]; destActive && visited.Claim(src) {
				candidates[dest] = append(candidates[dest], src)
			}
		}
	}

	var groups []TwoHopGroup
	for _, via := range direct {
		members := a.members(focal, candidates[via], forward, nil)
		if len(members) == 0 {
			continue
		}
		groups = append(groups, TwoHopGroup{
			Link:    NewLinkRef(focal, via),
			Members: members,
		})
	}
	return groups
}

// destinations returns the destinations of focal in index in the order focal
// first links to them. Destinations no written link names, such as embeds,
// follow in sorted order.
func (a *Aggregator) destinations(focal string, index LinkIndex) []string {
	direct := index.EdgesFrom(focal)
	out := make([]string, 0, len(direct))
	placed := make(map[string]struct{}, len(direct))
	place := func(dest string) {
		if _, done := placed[dest]; done || !index.HasEdge(focal, dest) {
			return
		}
		placed[dest] = struct{}{}
		out = append(out, dest)
	}

	for _, link := range a.ForwardLinks(focal) {
		if res := a.cache.ResolveLink(link.Target(), link.SourcePath); res.Exists() {
			place(res.Path)
		}
		place(link.Target())
	}
	for _, dest := range direct {
		place(dest)
	}
	return out
}

// BacklinkTwoHopLinks returns, for every backward link, the notes that
// backlink itself links to. Groups are keyed by the backlink and emitted for
// each index in which the backlink points at focal.
func (a *Aggregator) BacklinkTwoHopLinks(
	focal string,
	backward []LinkRef,
	forward KeySet,
	visited *Visited,
) (unresolved, resolved []TwoHopGroup) {
	for _, back := range backward {
		origin := a.cache.ResolveLink(back.Target(), back.SourcePath)
		if !origin.IsDocument() {
			continue
		}

		inUnresolved := a.unresolved.HasEdge(origin.Path, focal)
		inResolved := a.resolved.HasEdge(origin.Path, focal)
		if !inUnresolved && !inResolved {
			continue
		}

		var targets []string
		for _, link := range a.ForwardLinks(origin.Path) {
			target := a.cache.ResolveLink(link.Target(), link.SourcePath)
			if !target.IsDocument() || target.Path == focal {
				continue
			}
			if visited.Has(target.Path) || visited.Has(link.LinkText) {
				continue
			}
			targets = append(targets, target.Path)
		}

		members := a.members(focal, targets, forward, visited)
		if len(members) == 0 {
			continue
		}

		group := TwoHopGroup{
			Link:    NewLinkRef(origin.Path, origin.Path),
			Members: members,
		}
		if inUnresolved {
			unresolved = append(unresolved, group)
		}
		if inResolved {
			resolved = append(resolved, group)
		}
	}
	return unresolved, resolved
}

// members converts candidate paths into LinkRefs relative to focal, dropping
// focal itself, forward links and duplicates. When claim is non-nil each kept
// path must also be claimed.
func (a *Aggregator) members(focal string, paths []string, forward KeySet, claim *Visited) []LinkRef {
	if len(paths) == 0 {
		return nil
	}

	focalText := PathToLinkText(focal)
	seen := make(KeySet, len(paths))
	out := make([]LinkRef, 0, len(paths))
	for _, path := range paths {
		if path == focal {
			continue
		}
		ref := NewLinkRef(focal, PathToLinkText(path))
		if ref.Target() == focalText {
			continue
		}
		key := ref.Key()
		if forward.Has(key) || seen.Has(key) {
			continue
		}
		if !claim.Claim(path) {
			continue
		}
		seen.add(key)
		out = append(out, ref)
	}
	return out
}

// SplitByConnectivity separates forward links that resolve to an existing
// file from new ones. New links already shown as a two-hop group are dropped.
func (a *Aggregator) SplitByConnectivity(forward []LinkRef, twoHop KeySet) (connected, created []LinkRef) {
	seen := make(KeySet, len(forward))
	for _, link := range forward {
		key := link.Key()
		if seen.Has(key) {
			continue
		}
		seen.add(key)

		if a.cache.ResolveLink(link.Target(), link.SourcePath).Exists() {
			connected = append(connected, link)
			continue
		}
		if !twoHop.Has(key) {
			created = append(created, link)
		}
	}
	return connected, created
}

// TagLinks groups the other notes sharing a tag with focal. A note is listed
// once, under the first shared tag encountered.
func (a *Aggregator) TagLinks(focal string) []TagGroup {
	meta, ok := a.cache.FileCache(focal)
	if !ok || len(meta.Tags) == 0 {
		return nil
	}

	focalTags := make(map[string]struct{}, len(meta.Tags))
	for _, tag := range meta.Tags {
		focalTags[NormalizeTag(tag)] = struct{}{}
	}

	var order []string
	groups := make(map[string][]LinkRef)
	attached := make(map[string]struct{})
	for _, path := range a.cache.MarkdownFiles() {
		if path == focal {
			continue
		}
		other, ok := a.cache.FileCache(path)
		if !ok {
			continue
		}
		for _, raw := range other.Tags {
			tag := NormalizeTag(raw)
			if _, shared := focalTags[tag]; !shared {
				continue
			}
			if _, exists := groups[tag]; !exists {
				order = append(order, tag)
				groups[tag] = nil
			}
			if _, done := attached[path]; done {
				continue
			}
			groups[tag] = append(groups[tag], NewLinkRef(focal, PathToLinkText(path)))
			attached[path] = struct{}{}
		}
	}

	var out []TagGroup
	for _, tag := range order {
		if len(groups[tag]) == 0 {
			continue
		}
		out = append(out, TagGroup{Tag: tag, Members: groups[tag]})
	}
	return out
}

// NormalizeTag strips the leading "#" of a tag.
func NormalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}
