package metrics

// PartMetric aggregates the metrics of every section currently under one
// (title, part) grouping: sums for count-like fields, unweighted arithmetic
// means for density scores. It holds no independent state and is always fully
// recomputed from its constituent section metrics.
type PartMetric struct {
	Title          int
	Part           string
	Schema         int
	SectionCount   int
	WordCount      int
	ParagraphCount int
	SentenceCount  int

	MeanERI     float64
	MeanDOR     float64
	MeanPBI     float64
	MeanAMR     float64
	MeanFLI     float64
	MeanHVI     float64
	MeanDRS     float64
	MeanSOI     float64
	MeanFKGrade float64
}

// RollupPart computes the part-level aggregate for the given section metrics.
// It never reads or preserves a prior PartMetric value.
func RollupPart(title int, part string, sections []SectionMetric) PartMetric {
	pm := PartMetric{Title: title, Part: part, Schema: SchemaVersion, SectionCount: len(sections)}
	if len(sections) == 0 {
		return pm
	}
	for _, m := range sections {
		pm.WordCount += m.WordCount
		pm.ParagraphCount += m.ParagraphCount
		pm.SentenceCount += m.SentenceCount
		pm.MeanERI += m.ERI
		pm.MeanDOR += m.DOR
		pm.MeanPBI += m.PBI
		pm.MeanAMR += m.AMR
		pm.MeanFLI += m.FLI
		pm.MeanHVI += m.HVI
		pm.MeanDRS += m.DRS
		pm.MeanSOI += m.SOI
		pm.MeanFKGrade += m.FKGrade
	}
	n := float64(len(sections))
	pm.MeanERI /= n
	pm.MeanDOR /= n
	pm.MeanPBI /= n
	pm.MeanAMR /= n
	pm.MeanFLI /= n
	pm.MeanHVI /= n
	pm.MeanDRS /= n
	pm.MeanSOI /= n
	pm.MeanFKGrade /= n
	return pm
}
