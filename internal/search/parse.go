package search

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	frontMatterRe = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	wikiLinkRe    = regexp.MustCompile(`(!?)\[\[([^\[\]]+?)\]\]`)
	mdLinkRe      = regexp.MustCompile(`(!?)\[[^\]]*\]\(\s*<?([^)<>\s]+)>?(?:\s+"[^"]*")?\s*\)`)
	inlineTagRe   = regexp.MustCompile(`(?:^|[\s(,])#([\p{L}\p{N}_/\-]+)`)
	numericTagRe  = regexp.MustCompile(`^[0-9]+$`)
)

// parsedNote is the link and tag content extracted from a single note.
type parsedNote struct {
	Tags   []string
	Links  []string
	Embeds []string
}

func parseNote(data []byte, inlineTags bool) (parsedNote, error) {
	fm, body := splitFrontMatter(data)
	tags, err := frontMatterTags(fm)
	if err != nil {
		return parsedNote{}, err
	}

	masked := maskCode(body)
	links, embeds := extractLinks(masked)
	if inlineTags {
		tags = append(tags, extractInlineTags(masked)...)
	}

	return parsedNote{
		Tags:   uniqueStrings(tags),
		Links:  links,
		Embeds: embeds,
	}, nil
}

func splitFrontMatter(data []byte) ([]byte, []byte) {
	loc := frontMatterRe.FindSubmatchIndex(data)
	if len(loc) < 4 {
		return nil, data
	}
	return data[loc[2]:loc[3]], data[loc[1]:]
}

// frontMatterTags reads the tags (or tag) key of the YAML front matter.
// Scalar values may list several tags separated by commas or spaces.
func frontMatterTags(fm []byte) ([]string, error) {
	if len(fm) == 0 {
		return nil, nil
	}

	var data yaml.Node
	if err := yaml.Unmarshal(fm, &data); err != nil {
		return nil, err
	}
	if data.Kind != yaml.DocumentNode || len(data.Content) == 0 {
		return nil, nil
	}

	mapping := data.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, nil
	}

	var tags []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := strings.ToLower(mapping.Content[i].Value)
		if key != "tags" && key != "tag" {
			continue
		}
		for _, value := range flattenYAMLValue(mapping.Content[i+1]) {
			for _, tag := range strings.FieldsFunc(value, func(r rune) bool {
				return r == ',' || r == ' '
			}) {
				if tag = cleanTag(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}
	}
	return tags, nil
}

func flattenYAMLValue(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.SequenceNode:
		vals := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind == yaml.ScalarNode {
				vals = append(vals, child.Value)
			}
		}
		return vals
	case yaml.ScalarNode:
		return []string{node.Value}
	default:
		return nil
	}
}

// maskCode blanks out code spans and code blocks so that links and tags
// written inside them are not extracted. Offsets and line breaks are kept.
func maskCode(source []byte) []byte {
	masked := append([]byte(nil), source...)
	blank := func(seg text.Segment) {
		for i := seg.Start; i < seg.Stop && i < len(masked); i++ {
			if masked[i] != '\n' && masked[i] != '\r' {
				masked[i] = ' '
			}
		}
	}

	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				blank(lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if t, ok := child.(*ast.Text); ok {
					blank(t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return masked
}

type linkMatch struct {
	pos   int
	embed bool
	text  string
}

// extractLinks returns wiki and markdown link targets in the order they
// appear. Embeds ("![[...]]", "![](...)") are returned separately.
func extractLinks(body []byte) (links, embeds []string) {
	var matches []linkMatch
	for _, m := range wikiLinkRe.FindAllSubmatchIndex(body, -1) {
		target := string(body[m[4]:m[5]])
		if pipe := strings.Index(target, "|"); pipe >= 0 {
			target = target[:pipe]
		}
		matches = append(matches, linkMatch{pos: m[0], embed: m[3] > m[2], text: target})
	}
	for _, m := range mdLinkRe.FindAllSubmatchIndex(body, -1) {
		target := string(body[m[4]:m[5]])
		if isExternal(target) {
			continue
		}
		if decoded, err := url.PathUnescape(target); err == nil {
			target = decoded
		}
		matches = append(matches, linkMatch{pos: m[0], embed: m[3] > m[2], text: target})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].pos < matches[j].pos
	})

	for _, m := range matches {
		target := strings.TrimSpace(strings.ReplaceAll(m.text, "\\", "/"))
		if target == "" || strings.HasPrefix(target, "#") {
			continue
		}
		if m.embed {
			embeds = append(embeds, target)
			continue
		}
		links = append(links, target)
	}
	return links, embeds
}

func extractInlineTags(body []byte) []string {
	var tags []string
	for _, m := range inlineTagRe.FindAllSubmatch(body, -1) {
		tag := cleanTag(string(m[1]))
		if tag == "" || numericTagRe.MatchString(tag) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func cleanTag(tag string) string {
	return strings.Trim(strings.TrimSpace(tag), "#/")
}

func isExternal(link string) bool {
	lowered := strings.ToLower(link)
	return strings.Contains(lowered, "://") || strings.HasPrefix(lowered, "mailto:")
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
