package model

type ComplaintStatus string

const (
	StatusNew        ComplaintStatus = "New"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusInReview   ComplaintStatus = "In Review"
	StatusResolved   ComplaintStatus = "Resolved"
	StatusDenied     ComplaintStatus = "Denied"
)

// AllStatuses lists statuses in dashboard order.
var AllStatuses = []ComplaintStatus{
	StatusNew,
	StatusInProgress,
	StatusInReview,
	StatusResolved,
	StatusDenied,
}

// In Progress has no incoming edge; it only appears through direct
// mutation of the store.
var transitions = map[ComplaintStatus][]ComplaintStatus{
	StatusNew:        {StatusResolved, StatusInReview, StatusDenied},
	StatusInProgress: {StatusDenied},
	StatusInReview:   {StatusResolved, StatusInReview, StatusDenied},
}

func (s ComplaintStatus) Valid() bool {
	_, ok := statusVariants[s]
	return ok
}

func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusDenied
}

func (s ComplaintStatus) CanTransitionTo(target ComplaintStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// CanResolve reports whether a resolution attempt may start from s.
// Both outcomes of the attempt must be legal edges.
func (s ComplaintStatus) CanResolve() bool {
	return s.CanTransitionTo(StatusResolved) && s.CanTransitionTo(StatusInReview)
}

func (s ComplaintStatus) CanDeny() bool {
	return s.CanTransitionTo(StatusDenied)
}

// StatusVariant is the badge style a client renders for a status.
type StatusVariant string

const (
	VariantDefault     StatusVariant = "default"
	VariantSecondary   StatusVariant = "secondary"
	VariantOutline     StatusVariant = "outline"
	VariantDestructive StatusVariant = "destructive"
)

var statusVariants = map[ComplaintStatus]StatusVariant{
	StatusNew:        VariantSecondary,
	StatusInProgress: VariantOutline,
	StatusInReview:   VariantOutline,
	StatusResolved:   VariantDefault,
	StatusDenied:     VariantDestructive,
}

func (s ComplaintStatus) Variant() StatusVariant {
	if v, ok := statusVariants[s]; ok {
		return v
	}
	return VariantSecondary
}
