package domain

// Partition names one of the three terminal output batches of a run.
type Partition string

const (
	PartitionFormattedCorrect  Partition = "formatted_correct"
	PartitionFlaggedForReview  Partition = "flagged_for_review"
	PartitionRejectedIncorrect Partition = "rejected_incorrect"
)

func (p Partition) String() string { return string(p) }

func (p Partition) IsValid() bool {
	switch p {
	case PartitionFormattedCorrect, PartitionFlaggedForReview, PartitionRejectedIncorrect:
		return true
	}
	return false
}

// Partitions lists every partition in reporting order.
func Partitions() []Partition {
	return []Partition{PartitionFormattedCorrect, PartitionFlaggedForReview, PartitionRejectedIncorrect}
}

// Container groups output layers the way the combined map is delivered:
// formatted layers go to one container, layers needing provider queries to another.
type Container string

const (
	ContainerFormatted Container = "FormattedLayers"
	ContainerToCheck   Container = "ToCheck"
)

// Container returns the output container a partition is written to.
func (p Partition) Container() Container {
	if p == PartitionFormattedCorrect {
		return ContainerFormatted
	}
	return ContainerToCheck
}
