package model

import "time"

// DemoDocuments returns the records a fresh in-memory store starts with.
func DemoDocuments() []StandardDocument {
	return []StandardDocument{
		{
			ID:        "1",
			Name:      "数据资产管理实践白皮书 5.0",
			Type:      StandardTypeIndustry,
			CreatedAt: time.Date(2023, 10, 15, 9, 30, 0, 0, time.UTC),
			Creator:   "张三",
			FileName:  "data_asset_whitepaper_v5.pdf",
			FileSize:  5242880,
		},
		{
			ID:        "2",
			Name:      "GB/T 36073-2018 数据管理能力成熟度评估模型",
			Type:      StandardTypeNational,
			CreatedAt: time.Date(2023, 11, 1, 14, 20, 0, 0, time.UTC),
			Creator:   "李四",
			FileName:  "DCMM_GBT_36073.pdf",
			FileSize:  2048000,
		},
		{
			ID:        "3",
			Name:      "XX市公共数据分类分级指南",
			Type:      StandardTypeRegional,
			CreatedAt: time.Date(2023, 12, 10, 11, 0, 0, 0, time.UTC),
			Creator:   "王五",
			FileName:  "city_public_data_guide.docx",
			FileSize:  1024000,
		},
	}
}
