package trainer

// MergeParams merges the shared parameter sub-mapping with a
// component-specific one. Shared parameters are applied identically to both
// collaborators; specific parameters override shared ones on key collision
// for that collaborator only. The result is a fresh map.
func MergeParams(shared, specific map[string]any) map[string]any {
	merged := make(map[string]any, len(shared)+len(specific))
	for k, v := range shared {
		merged[k] = v
	}
	for k, v := range specific {
		merged[k] = v
	}
	return merged
}
