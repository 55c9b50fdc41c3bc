package constant

const (
	UPDATED                  = "Updated successfully"
	INVALID_ID               = "invalid id"
	INVALID_PAGE_NUMBER      = "invalid page number"
	PAGE_NUMBER_OUT_OF_RANGE = "page number out of range"
)
