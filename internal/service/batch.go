package service

// DefaultBatchSize is the largest number of recipients sent in one provider call
const DefaultBatchSize = 100

// Batch partitions recipients into consecutive chunks of at most size.
// Chunks share the backing array of recipients.
func Batch(recipients []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]string, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batches = append(batches, recipients[start:end:end])
	}
	return batches
}
