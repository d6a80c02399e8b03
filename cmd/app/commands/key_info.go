package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	cryptoDTO "github.com/allisson/rotavault/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
)

// RunKeyInfo prints the current key version and the metadata of every known version.
func RunKeyInfo(
	keyUseCase cryptoUseCase.KeyUseCase,
	keyring cryptoUseCase.Keyring,
	out io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	info := cryptoDTO.MapKeyInfoToResponse(keyUseCase.Info(keyring))
	if format == FormatJSON {
		return writeJSON(out, info)
	}

	fmt.Fprintf(out, "Current version: %d\n\n", info.CurrentVersion)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tACTIVE\tCREATED\tROTATED\tFINGERPRINT")
	for _, v := range info.Versions {
		rotated := "-"
		if v.RotatedAt != nil {
			rotated = v.RotatedAt.Format(time.RFC3339)
		}
		fingerprint := v.Fingerprint
		if fingerprint == "" {
			fingerprint = "-"
		}
		fmt.Fprintf(tw, "%d\t%t\t%s\t%s\t%s\n",
			v.Version, v.Active, v.CreatedAt.Format(time.RFC3339), rotated, fingerprint)
	}
	return tw.Flush()
}
