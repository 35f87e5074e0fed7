package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Formatter formats results for output.
type Formatter interface {
	FormatAccount(w io.Writer, acc *Account) error
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatAccount prints the account email and roles.
func (f *HumanFormatter) FormatAccount(w io.Writer, acc *Account) error {
	if f.Quiet {
		return nil
	}
	if acc.Message != "" {
		_, _ = fmt.Fprintln(w, acc.Message)
	}
	_, _ = fmt.Fprintf(w, "Email: %s\n", acc.Email)
	if len(acc.Authorities) > 0 {
		_, _ = fmt.Fprintf(w, "Roles: %s\n", strings.Join(acc.Authorities, ", "))
	}
	return nil
}

// FormatUpload prints the share token. In quiet mode only the token is
// printed so it can be piped.
func (f *HumanFormatter) FormatUpload(w io.Writer, r *UploadResult) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, r.Token)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.Filename, formatSize(r.Size))
	_, _ = fmt.Fprintf(w, "  Token:   %s\n", r.Token)
	_, _ = fmt.Fprintf(w, "  Expires: %s\n", r.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.Filename, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Filename, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Token, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Token)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	maxNameLen := 8 // "FILENAME"
	for i := range result.Items {
		if len(result.Items[i].Filename) > maxNameLen {
			maxNameLen = len(result.Items[i].Filename)
		}
	}
	if maxNameLen > 50 {
		maxNameLen = 50
	}

	_, _ = fmt.Fprintf(w, "%-6s  %-*s  %10s  %s\n", "TOKEN", maxNameLen, "FILENAME", "SIZE", "EXPIRES")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 6), strings.Repeat("-", maxNameLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range result.Items {
		item := &result.Items[i]
		name := item.Filename
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-6s  %-*s  %10s  %s\n",
			item.Token,
			maxNameLen,
			name,
			formatSize(item.Size),
			item.ExpiresAt.UTC().Format(time.DateTime),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(result.Items), formatSize(result.TotalSize()))

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatAccount(w io.Writer, acc *Account) error {
	return writeJSON(w, acc)
}

func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		Token   string `json:"token"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Token:   r.Token,
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	if result.Items == nil {
		result = &ListResult{Items: []FileInfo{}, NextCursor: result.NextCursor}
	}
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	// Print header
	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "SESSION")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	// Print profiles
	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, sessionState(p, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Session:  %s\n", sessionState(&profile, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = toJSONProfile(&profiles[i], profiles[i].Name == defaultName, showSecrets)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, toJSONProfile(&profile, isDefault, showSecrets))
}

type jsonProfile struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Email    string `json:"email,omitempty"`
	Session  string `json:"session"`
	Default  bool   `json:"default"`
}

func toJSONProfile(p *Profile, isDefault, showSecrets bool) jsonProfile {
	return jsonProfile{
		Name:     p.Name,
		Endpoint: p.Endpoint,
		Email:    p.Email,
		Session:  maskSecret(p.Session, showSecrets),
		Default:  isDefault,
	}
}

// sessionState describes the login state of a profile.
func sessionState(p *Profile, showSecrets bool) string {
	if p.Session == "" {
		return "(logged out)"
	}
	if p.Email == "" {
		return maskSecret(p.Session, showSecrets)
	}
	return p.Email + " " + maskSecret(p.Session, showSecrets)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
