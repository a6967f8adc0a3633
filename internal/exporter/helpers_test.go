package exporter

import "siteoutage/pkg/contracts/domain"

func sampleRecords() []domain.SiteOutage {
	return []domain.SiteOutage{
		{
			Site:           "ABC01",
			Downtime2G:     2000,
			Downtime4G:     2500,
			CommonOutage:   2000,
			Only2G:         0,
			Only4G:         500,
			TotalOutageMin: 500,
			TotalOutageDay: 0.35,
			Category:       0,
			Penalty:        0,
		},
		{
			Site:           "ABC02",
			Downtime2G:     7000,
			Downtime4G:     0,
			CommonOutage:   0,
			Only2G:         7000,
			Only4G:         0,
			TotalOutageMin: 7000,
			TotalOutageDay: 4.86,
			Category:       0.86,
			Penalty:        2.58,
		},
	}
}
