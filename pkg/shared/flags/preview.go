package flags

import (
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/config"
)

var previewFlagKeys = map[string]string{
	"show-image":    config.KeyShowImage,
	"preview-width": config.KeyPreviewWidth,
	"style":         config.KeyStyle,
}

// AddPreview registers the flags that shape previews and rendering.
func AddPreview(cmd *cobra.Command) {
	cmd.Flags().Bool("show-image", false, "Preview notes by their first embedded image")
	cmd.Flags().Int("preview-width", 0, "Truncate previews to this many columns")
	cmd.Flags().String("style", "", "Glamour style name or style file path (auto, dark, light, notty)")
}

// BindPreview binds the preview flags of cmd to their config keys.
func BindPreview(cmd *cobra.Command) error {
	return bind(cmd, previewFlagKeys)
}

// AddJSON registers the --json output flag.
func AddJSON(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Write the result as JSON instead of rendered markdown")
}

// HandleJSON reports whether --json was given.
func HandleJSON(cmd *cobra.Command) (bool, error) {
	return cmd.Flags().GetBool("json")
}
