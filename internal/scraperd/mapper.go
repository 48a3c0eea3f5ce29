package scraperd

import "github.com/arun279/notebook-sources/internal/domain"

// mapStatus converts a wire status to the domain lifecycle status.
// Older servers report paywalled records as "blocked".
func mapStatus(s string) domain.RecordStatus {
	switch s {
	case "pending":
		return domain.StatusPending
	case "scraping":
		return domain.StatusScraping
	case "scraped":
		return domain.StatusScraped
	case "failed":
		return domain.StatusFailed
	case "paywalled", "blocked":
		return domain.StatusPaywalled
	default:
		return domain.StatusPending
	}
}

func mapRecord(dto referenceDTO, collectionID string) domain.Record {
	return domain.Record{
		ID:           dto.ID,
		CollectionID: collectionID,
		Title:        dto.Title,
		URL:          dto.URL,
		PubDate:      dto.PubDate,
		AccessDate:   dto.AccessDate,
		Suspected:    dto.SuspectedPaywall,
		Status:       mapStatus(dto.Status),
	}
}

func mapRecords(dtos []referenceDTO, collectionID string) []domain.Record {
	records := make([]domain.Record, len(dtos))
	for i, dto := range dtos {
		records[i] = mapRecord(dto, collectionID)
	}
	return records
}

func mapCollection(dto pageSummaryDTO) domain.Collection {
	return domain.Collection{
		ID:               dto.ID,
		URL:              dto.URL,
		Title:            dto.Title,
		TotalRecords:     dto.TotalRefs,
		CompletedRecords: dto.ScrapedRefs,
	}
}

func mapProgress(dto progressResponse) domain.ProgressSnapshot {
	items := make([]domain.RecordProgress, len(dto.Items))
	for i, item := range dto.Items {
		items[i] = domain.RecordProgress{
			RecordID: item.ReferenceID,
			Status:   mapStatus(item.Status),
		}
	}
	return domain.ProgressSnapshot{Percent: dto.Percent, Items: items}
}
