package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/shared"
)

// ExportVersion is the wire format version of role export documents.
const ExportVersion = "1.0"

// ExportedRole is a single role in an export document.
type ExportedRole struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

// ExportDocument is the role export/import wire format.
type ExportDocument struct {
	Version   string                  `json:"version"`
	ID        string                  `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	Roles     map[string]ExportedRole `json:"roles"`
}

// ImportReport tallies an import run.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Export serializes the named roles (all roles when names is empty) as a
// JSON document. Administrator-like roles are always excluded.
func (s *Service) Export(ctx context.Context, names []string) (ExportDocument, error) {
	doc := ExportDocument{
		Version:   ExportVersion,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Roles:     make(map[string]ExportedRole),
	}

	var selected []Role
	if len(names) == 0 {
		all, err := s.authority.ListRoles(ctx)
		if err != nil {
			return ExportDocument{}, err
		}
		selected = all
	} else {
		for _, name := range names {
			role, err := s.authority.GetRole(ctx, name)
			if err != nil {
				continue
			}
			selected = append(selected, role)
		}
	}

	for _, role := range selected {
		if IsProtectedRoleName(role.Name) {
			continue
		}
		doc.Roles[role.Name] = ExportedRole{
			Name:         role.DisplayName,
			Capabilities: role.Capabilities.Sorted(),
		}
	}
	return doc, nil
}

// Import recreates roles from an export document. Administrator-like names
// are always skipped; existing roles are skipped unless overwrite is set,
// in which case they are deleted and recreated from the payload. The
// payload's capability map is persisted verbatim; the repair pass closes
// dependency gaps later.
func (s *Service) Import(ctx context.Context, payload []byte, overwrite bool) (ImportReport, error) {
	var doc ExportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ImportReport{}, fmt.Errorf("roles: invalid import payload: %w", shared.ErrInvalidInput)
	}
	if doc.Roles == nil {
		return ImportReport{}, fmt.Errorf("roles: import payload has no roles: %w", shared.ErrInvalidInput)
	}

	var report ImportReport
	for name, imported := range doc.Roles {
		if IsProtectedRoleName(name) {
			report.Skipped++
			continue
		}

		exists, err := s.authority.RoleExists(ctx, name)
		if err != nil {
			return report, err
		}
		if exists {
			if !overwrite {
				report.Skipped++
				continue
			}
			if err := s.authority.DeleteRole(ctx, name); err != nil {
				return report, err
			}
		}

		role := Role{
			Name:         SanitizeSlug(name),
			DisplayName:  imported.Name,
			Capabilities: capability.NewSet(imported.Capabilities...),
		}
		if err := s.authority.CreateRole(ctx, role); err != nil {
			return report, err
		}
		report.Imported++
	}

	s.record(ctx, "roles_imported", "role", "", fmt.Sprintf("Imported %d roles (%d skipped)", report.Imported, report.Skipped), map[string]any{
		"imported":  report.Imported,
		"skipped":   report.Skipped,
		"overwrite": overwrite,
	})
	return report, nil
}
