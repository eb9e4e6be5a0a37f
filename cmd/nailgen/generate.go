package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mhpenta/nailgen"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one image and write it to a file",
	Example: `  nailgen generate --prompt "floral pattern" --skin-tone light --skin-tone-hex "#f2d5c4" --out nail.png
  nailgen generate -p "gold stripes" --data-url`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		prompt, _ := cmd.Flags().GetString("prompt")
		skinTone, _ := cmd.Flags().GetString("skin-tone")
		skinToneHex, _ := cmd.Flags().GetString("skin-tone-hex")
		out, _ := cmd.Flags().GetString("out")
		asDataURL, _ := cmd.Flags().GetBool("data-url")

		cascade, err := cfg.NewCascade(cmd.Context(), logger, nil)
		if err != nil {
			return err
		}
		defer cascade.Close()

		outcome, err := cascade.Generate(cmd.Context(), &nailgen.GenerationRequest{
			Prompt:      prompt,
			SkinTone:    skinTone,
			SkinToneHex: skinToneHex,
		})
		if err != nil {
			return err
		}

		if warning := outcome.Warning(); warning != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
		}

		if asDataURL {
			fmt.Fprintln(cmd.OutOrStdout(), outcome.DataURL())
			return nil
		}

		data, err := base64.StdEncoding.DecodeString(outcome.ImageBase64)
		if err != nil {
			return fmt.Errorf("decoding image: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing image: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes) from %s\n", out, outcome.MIMEType, len(data), outcome.ProviderUsed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("prompt", "p", "", "Nail design description (required)")
	generateCmd.Flags().StringP("skin-tone", "s", nailgen.DefaultSkinTone, "Skin tone token selecting the template")
	generateCmd.Flags().String("skin-tone-hex", "", "Skin color as #rgb or #rrggbb")
	generateCmd.Flags().StringP("out", "o", "nail.png", "Output file")
	generateCmd.Flags().Bool("data-url", false, "Print a data URL instead of writing a file")
	_ = generateCmd.MarkFlagRequired("prompt")
}
