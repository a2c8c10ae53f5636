package core

import "sort"

// ValidateKeys checks that an input mapper emits exactly the fields a pipeline
// accepts, compared as sets. It returns a *ConstructionError describing the
// difference on mismatch.
func ValidateKeys(mapperKeys, pipelineKeys []string) error {
	produced := toSet(mapperKeys)
	accepted := toSet(pipelineKeys)

	var missing, extra []string
	for k := range accepted {
		if _, ok := produced[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range produced {
		if _, ok := accepted[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)

	return &ConstructionError{
		Reason:       "key set mismatch",
		MapperKeys:   append([]string(nil), mapperKeys...),
		PipelineKeys: append([]string(nil), pipelineKeys...),
		Missing:      missing,
		Extra:        extra,
	}
}

func toSet(keys []string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}
