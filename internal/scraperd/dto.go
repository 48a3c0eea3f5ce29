package scraperd

// Wire DTOs for the scraper server's /api/v1 JSON contract.

type parseRequest struct {
	URL string `json:"url"`
}

type scrapeRequest struct {
	ReferenceIDs []string `json:"reference_ids"`
	Aggressive   bool     `json:"aggressive"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

type referenceDTO struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	PubDate          string `json:"pub_date,omitempty"`
	AccessDate       string `json:"access_date,omitempty"`
	SuspectedPaywall bool   `json:"suspected_paywall"`
	Status           string `json:"status"`
}

type referencesResponse struct {
	References []referenceDTO `json:"references"`
}

type referenceProgressDTO struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
}

type progressResponse struct {
	Percent float64                `json:"percent"`
	Items   []referenceProgressDTO `json:"items"`
}

type pageSummaryDTO struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	TotalRefs      int     `json:"total_refs"`
	ScrapedRefs    int     `json:"scraped_refs"`
	PercentScraped float64 `json:"percent_scraped"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
