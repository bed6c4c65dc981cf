package llhdmod

import "fmt"

// LinkReason classifies why a single ExtUnit reference could not be
// resolved.
type LinkReason int

const (
	// LinkMissing means no global unit with that name exists anywhere
	// in the module.
	LinkMissing LinkReason = iota
	// LinkAmbiguous means more than one global unit shares that name.
	LinkAmbiguous
	// LinkSignatureMismatch means a uniquely-named candidate exists but
	// its signature does not match the reference's declared signature.
	LinkSignatureMismatch
)

func (r LinkReason) String() string {
	switch r {
	case LinkMissing:
		return "missing"
	case LinkAmbiguous:
		return "ambiguous"
	case LinkSignatureMismatch:
		return "signature mismatch"
	}
	return "?"
}

// LinkError describes one failed reference: the local unit that made
// it, the external declaration name it referenced, and why resolution
// failed. Link accumulates every failure instead of stopping at the
// first one, the way pkg/verify accumulates verification errors.
type LinkError struct {
	Unit       ModUnit
	ExternName string
	Reason     LinkReason
	Candidates []ModUnit // populated when Reason == LinkAmbiguous
}

func (e *LinkError) Error() string {
	switch e.Reason {
	case LinkAmbiguous:
		return fmt.Sprintf("unit %v: reference to %q is ambiguous (%d candidates)", e.Unit, e.ExternName, len(e.Candidates))
	case LinkSignatureMismatch:
		return fmt.Sprintf("unit %v: reference to %q does not match the declared signature", e.Unit, e.ExternName)
	default:
		return fmt.Sprintf("unit %v: reference to %q could not be resolved", e.Unit, e.ExternName)
	}
}

// Resolution records, for one local unit, which ModUnit each of its
// ExtUnit declarations resolved to.
type Resolution struct {
	Targets map[uint32]ModUnit // keyed by ir.ExtUnit, avoiding an import cycle on ir.ExtUnit's underlying type
}

// Link resolves every ExtUnit reference made by every locally-defined
// unit in m against the module's global declarations, requiring an
// exact name + signature match on a uniquely-named candidate (spec.md
// §4.5). It returns the per-unit resolutions on success, or every
// LinkError encountered (one per unresolved reference) otherwise.
func (m *Module) Link() (map[ModUnit]*Resolution, []*LinkError) {
	resolutions := make(map[ModUnit]*Resolution)
	var errs []*LinkError

	for _, id := range m.Units() {
		if m.IsDeclaration(id) {
			continue
		}
		u := m.Unit(id)
		dfg := u.DFG()
		res := &Resolution{Targets: make(map[uint32]ModUnit)}
		for _, ext := range dfg.ExternUnits() {
			name := dfg.ExternName(ext)
			sig := dfg.ExternSig(ext)
			candidates := m.findGlobalCandidates(trimSigil(name))
			switch {
			case len(candidates) == 0:
				errs = append(errs, &LinkError{Unit: id, ExternName: name, Reason: LinkMissing})
			case len(candidates) > 1:
				errs = append(errs, &LinkError{Unit: id, ExternName: name, Reason: LinkAmbiguous, Candidates: candidates})
			default:
				target := candidates[0]
				targetSig := m.Signature(target).Type(m.Kind(target))
				if !targetSig.Equal(sig) {
					errs = append(errs, &LinkError{Unit: id, ExternName: name, Reason: LinkSignatureMismatch})
					continue
				}
				res.Targets[uint32(ext)] = target
			}
		}
		resolutions[id] = res
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return resolutions, nil
}

func trimSigil(name string) string {
	if len(name) > 0 && (name[0] == '@' || name[0] == '%') {
		return name[1:]
	}
	return name
}
