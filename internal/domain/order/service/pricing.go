package service

import "github.com/shopspring/decimal"

// Quote 一次报价：折前总价、折扣额、应付金额
// 全程使用 decimal 计算，落库的金额不携带浮点误差
type Quote struct {
	BasePrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputeQuote 按单价、人数、折扣百分比计算报价
// basePrice = unitPrice * headcount
// discountAmount = basePrice * discountPercentage / 100
// finalPrice = basePrice - discountAmount
func ComputeQuote(unitPrice decimal.Decimal, headcount int, discountPercentage int) Quote {
	basePrice := unitPrice.Mul(decimal.NewFromInt(int64(headcount)))
	discountAmount := basePrice.Mul(decimal.NewFromInt(int64(discountPercentage))).Div(hundred)
	return Quote{
		BasePrice:      basePrice,
		DiscountAmount: discountAmount,
		FinalPrice:     basePrice.Sub(discountAmount),
	}
}
