package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/twohop/internal/config"
)

var linkFlagKeys = map[string]string{
	"exclude-front-link":       config.KeyExcludeFrontLink,
	"exclude-backlink":         config.KeyExcludeBacklink,
	"exclude-tag":              config.KeyExcludeTag,
	"excludes-duplicate-links": config.KeyExcludesDuplicateLinks,
}

// AddLinks registers the flags that toggle the optional aggregation passes.
func AddLinks(cmd *cobra.Command) {
	cmd.Flags().Bool("exclude-front-link", false, "Hide the links section")
	cmd.Flags().Bool("exclude-backlink", false, "Hide back links and the two-hop groups reached through them")
	cmd.Flags().Bool("exclude-tag", false, "Hide tag groups")
	cmd.Flags().Bool("excludes-duplicate-links", false, "Show every note at most once across sections")
}

// BindLinks binds the aggregation flags of cmd to their config keys. It runs
// when cmd executes, so sibling commands declaring the same flags do not
// shadow each other.
func BindLinks(cmd *cobra.Command) error {
	return bind(cmd, linkFlagKeys)
}

func bind(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
