package game

import "github.com/tatianab/kitchen-wars/internal/models"

type endingRule struct {
	meter  models.Meter
	atMax  bool
	ending models.Ending
}

// Order matters: when one transition crosses several thresholds the first rule wins.
var endingRules = []endingRule{
	{models.Reputation, false, models.Ending{
		ID: "reputation_zero", Title: "恶评如潮", Rarity: "common",
		Description:   "餐厅声誉扫地，无人问津而倒闭。",
		ShareTemplate: "我的餐厅撑了{{days}}天，最后被差评淹没了。",
	}},
	{models.Reputation, true, models.Ending{
		ID: "reputation_max", Title: "盛名所累", Rarity: "rare",
		Description:   "过度神化后，任何小瑕疵都引发巨大舆论反噬。",
		ShareTemplate: "我的餐厅红了{{days}}天，然后被自己的名气压垮。",
	}},
	{models.Profit, false, models.Ending{
		ID: "profit_zero", Title: "资金链断裂", Rarity: "common",
		Description:   "支付不起房租员工工资而破产。",
		ShareTemplate: "坚持了{{days}}天，钱包先倒下了。",
	}},
	{models.Profit, true, models.Ending{
		ID: "profit_max", Title: "为富不仁", Rarity: "rare",
		Description:   "过分逐利引发税务稽查而查封。",
		ShareTemplate: "赚了{{days}}天的钱，税务局来敲门了。",
	}},
	{models.CustomerFlow, false, models.Ending{
		ID: "customer_zero", Title: "门可罗雀", Rarity: "common",
		Description:   "客流断绝，餐厅直接关门。",
		ShareTemplate: "开了{{days}}天，最后一位客人也没来。",
	}},
	{models.CustomerFlow, true, models.Ending{
		ID: "customer_max", Title: "不堪重负", Rarity: "rare",
		Description:   "服务跟不上导致安全事故而停业。",
		ShareTemplate: "火爆了{{days}}天，店被挤爆了。",
	}},
	{models.StaffMorale, false, models.Ending{
		ID: "staff_zero", Title: "集体跑路", Rarity: "common",
		Description:   "员工全部辞职，餐厅瘫痪。",
		ShareTemplate: "第{{days}}天，员工们一起跑路了。",
	}},
	{models.StaffMorale, true, models.Ending{
		ID: "staff_max", Title: "养虎为患", Rarity: "legendary",
		Description:   "员工联合架空老板，夺取餐厅控制权。",
		ShareTemplate: "宠了员工{{days}}天，餐厅换了老板。",
	}},
}

// Evaluate reports the ending reached by m, if any. It returns false only when all
// four meters are strictly inside (0,100).
func Evaluate(m models.MeterSet) (models.Ending, bool) {
	for _, r := range endingRules {
		v := m.Get(r.meter)
		if (!r.atMax && v <= models.MeterMin) || (r.atMax && v >= models.MeterMax) {
			return r.ending, true
		}
	}
	return models.Ending{}, false
}

// Endings lists every ending in evaluation order.
func Endings() []models.Ending {
	out := make([]models.Ending, len(endingRules))
	for i, r := range endingRules {
		out[i] = r.ending
	}
	return out
}

// EndingByID looks up a static ending.
func EndingByID(id string) (models.Ending, bool) {
	for _, r := range endingRules {
		if r.ending.ID == id {
			return r.ending, true
		}
	}
	return models.Ending{}, false
}
