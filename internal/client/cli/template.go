package cli

const entityTemplate = `
=== Record Details ===

ID:      {{.Entity.ID}}
Type:    {{.Entity.Type}}
{{- if .Entity.ParentID }}
Parent:  {{.Entity.ParentID}}
{{- end}}
Status:  {{.Status}}
Updated: {{.UpdatedAt}}
Version: {{.Entity.VersionVector}}

Fields:
{{- range $key, $value := .Entity.Fields }}
  {{ $key }}: {{ $value }}
{{- end}}
`

const conflictTemplate = `
=== Conflict ===

Record:   {{.EntityID}}
Type:     {{.EntityType}}
Detected: {{.CreatedAt}}
Fields:   {{.ConflictingFields}}

Local version:
{{- range $key, $value := .LocalSnapshot }}
  {{ $key }}: {{ $value }}
{{- end}}

Remote version:
{{- range $key, $value := .RemoteSnapshot }}
  {{ $key }}: {{ $value }}
{{- end}}

Resolve with: fieldkeeper resolve {{.EntityID}} <local|remote>
`
