// Package dataset holds the collected package records and the read-only
// views over them: top-N slices, filters, category and license counts, and
// the run summary.
//
// Nothing here mutates its input. Every view copies before sorting, so the
// same slice of records can feed several exporters in turn.
//
//	top := dataset.TopBy(records, dataset.ByActivity, 50)
//	ready := dataset.ProductionReady(records, 3, 50)
//	sum := dataset.Summarize(records, time.Now())
package dataset
