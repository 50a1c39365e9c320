package model

type Address struct {
	Recipient     string `json:"recipient" binding:"required"`    // 수령인
	Phone         string `json:"phone" binding:"required"`        // 전화번호
	ZipCode       string `json:"zip_code"`                        // 우편번호
	Address       string `json:"address" binding:"required"`      // 주소
	DetailAddress string `json:"detail_address"`                  // 상세주소
	Country       string `json:"country,omitempty"`
}
