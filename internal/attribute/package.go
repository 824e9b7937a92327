package attribute

import "github.com/hostguard/compliance/internal/hosterr"

// PackageState names whether a package is expected to be present or
// absent — shared by Apt/YumDnf/Pacman expected-state records.
type PackageState string

const (
	PackagePresent PackageState = "present"
	PackageAbsent  PackageState = "absent"
)

// validatePackageFields enforces the shared package-attribute invariant:
// either Upgrade is true, or both State and Package are set.
func validatePackageFields(state *PackageState, pkg string, upgrade bool) error {
	if upgrade {
		return nil
	}
	if state == nil && pkg == "" {
		return hosterr.New(hosterr.KindIncoherentExpectedState, "package attribute has neither state/package nor upgrade set")
	}
	if state != nil && pkg == "" {
		return hosterr.New(hosterr.KindIncoherentExpectedState, "package attribute has state set but package is empty")
	}
	if state == nil && pkg != "" {
		return hosterr.New(hosterr.KindIncoherentExpectedState, "package attribute has package set but state is empty")
	}
	return nil
}
