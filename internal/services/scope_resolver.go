// internal/services/scope_resolver.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// ScopeSet is the flattened distributor/OpCo/industry scope of a contract
// version or a proposal, comparable across the two.
type ScopeSet struct {
	DistributorIDs map[uuid.UUID]struct{}
	OpCoIDs        map[uuid.UUID]struct{}
	IndustryIDs    map[uuid.UUID]struct{}
}

func NewScopeSet() ScopeSet {
	return ScopeSet{
		DistributorIDs: make(map[uuid.UUID]struct{}),
		OpCoIDs:        make(map[uuid.UUID]struct{}),
		IndustryIDs:    make(map[uuid.UUID]struct{}),
	}
}

func (s ScopeSet) IsEmpty() bool {
	return len(s.DistributorIDs) == 0 && len(s.OpCoIDs) == 0 && len(s.IndustryIDs) == 0
}

// Intersects reports whether two scopes share at least one id in any
// dimension. A dimension empty on both sides does not constrain; two scopes
// that are both entirely empty cover the same (unrestricted) territory and
// therefore intersect.
func (s ScopeSet) Intersects(other ScopeSet) bool {
	if s.IsEmpty() && other.IsEmpty() {
		return true
	}
	for id := range s.DistributorIDs {
		if _, ok := other.DistributorIDs[id]; ok {
			return true
		}
	}
	for id := range s.OpCoIDs {
		if _, ok := other.OpCoIDs[id]; ok {
			return true
		}
	}
	for id := range s.IndustryIDs {
		if _, ok := other.IndustryIDs[id]; ok {
			return true
		}
	}
	return false
}

// ScopeResolver flattens the multi-assignment scope relationships of
// contracts and proposals into comparable sets.
type ScopeResolver struct {
	db *gorm.DB
}

func NewScopeResolver(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{db: db}
}

func (r *ScopeResolver) withDB(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{db: db}
}

// ResolveVersionScope returns the scope of a contract version. Every version
// is written with its complete assignment row-set, so the rows stamped with
// the exact version number are the whole answer: a dimension with no rows at
// that version is empty, not inherited from an earlier version.
func (r *ScopeResolver) ResolveVersionScope(contractID uuid.UUID, versionNumber int) (ScopeSet, error) {
	scope := NewScopeSet()

	var distributors []models.ContractDistributorAssignment
	if err := r.versionRows(&distributors, "contract_distributor_assignments", contractID, versionNumber); err != nil {
		return scope, err
	}
	for _, a := range distributors {
		scope.DistributorIDs[a.DistributorID] = struct{}{}
	}

	var opcos []models.ContractOpCoAssignment
	if err := r.versionRows(&opcos, "contract_op_co_assignments", contractID, versionNumber); err != nil {
		return scope, err
	}
	for _, a := range opcos {
		scope.OpCoIDs[a.OpCoID] = struct{}{}
	}

	var industries []models.ContractIndustryAssignment
	if err := r.versionRows(&industries, "contract_industry_assignments", contractID, versionNumber); err != nil {
		return scope, err
	}
	for _, a := range industries {
		scope.IndustryIDs[a.IndustryID] = struct{}{}
	}

	return scope, nil
}

func (r *ScopeResolver) versionRows(dest interface{}, table string, contractID uuid.UUID, versionNumber int) error {
	if err := r.db.Table(table).
		Where("contract_id = ? AND version_number = ? AND deleted_at IS NULL", contractID, versionNumber).
		Find(dest).Error; err != nil {
		return fmt.Errorf("failed to resolve %s scope: %w", table, err)
	}
	return nil
}

// ResolveProposalScope flattens a proposal's unversioned scope rows.
func (r *ScopeResolver) ResolveProposalScope(proposal *models.Proposal) ScopeSet {
	scope := NewScopeSet()
	for _, d := range proposal.Distributors {
		scope.DistributorIDs[d.DistributorID] = struct{}{}
	}
	for _, o := range proposal.OpCos {
		scope.OpCoIDs[o.OpCoID] = struct{}{}
	}
	for _, i := range proposal.Industries {
		scope.IndustryIDs[i.IndustryID] = struct{}{}
	}
	return scope
}

// ScopeFromIDs builds a scope set from raw id slices.
func ScopeFromIDs(distributorIDs, opcoIDs, industryIDs []uuid.UUID) ScopeSet {
	scope := NewScopeSet()
	for _, id := range distributorIDs {
		scope.DistributorIDs[id] = struct{}{}
	}
	for _, id := range opcoIDs {
		scope.OpCoIDs[id] = struct{}{}
	}
	for _, id := range industryIDs {
		scope.IndustryIDs[id] = struct{}{}
	}
	return scope
}
