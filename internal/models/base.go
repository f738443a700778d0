package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// BaseModel 通用主键与时间戳
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IDList 以JSON数组存储的ID列表
type IDList = datatypes.JSON

// NewIDList 将ID切片编码为JSON列
func NewIDList(ids []uint) IDList {
	if ids == nil {
		ids = []uint{}
	}
	raw, _ := json.Marshal(ids)
	return IDList(raw)
}

// ParseIDList 解码JSON列，空值返回nil
func ParseIDList(list IDList) []uint {
	if len(list) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(list, &ids); err != nil {
		return nil
	}
	return ids
}
