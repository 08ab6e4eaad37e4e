package models

// Quality cờ chất lượng của một stage
type Quality string

const (
	QualityGood  Quality = "Good"
	QualityFalse Quality = "False"
)

// QualityOf trả về Good nếu mọi trường đều đã xác định
func QualityOf(fields ...Field) Quality {
	for _, f := range fields {
		if !f.IsResolved() {
			return QualityFalse
		}
	}
	return QualityGood
}

// Nguồn của kết quả province
const (
	SourceModel   = "model"
	SourceGeocode = "geocode"
)

// Output keys dùng trong ResolutionRecord.Output, trùng với key JSON model trả về
const (
	KeyProvince  = "province"
	KeyDistrict  = "district"
	KeyWard      = "ward"
	KeyViAddress = "vi_address"
	KeyEnAddress = "en_address"
)

// ResolutionRecord kết quả của một stage trong pipeline
type ResolutionRecord struct {
	Template       string            `json:"prompt_name" bson:"prompt_name"`
	Bindings       map[string]string `json:"data_to_fill" bson:"data_to_fill"`
	Prompt         string            `json:"completed_prompt" bson:"completed_prompt"`
	ZeroShotPrompt string            `json:"zero_shot_completed_prompt" bson:"zero_shot_completed_prompt"`
	RawOutput      map[string]any    `json:"model_output" bson:"model_output"`
	Output         map[string]Field  `json:"output" bson:"output"`
	Quality        Quality           `json:"quality" bson:"quality"`
	Source         string            `json:"source,omitempty" bson:"source,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
	Error          string            `json:"error,omitempty" bson:"error,omitempty"`
}

// Field lấy một trường output, Unresolved nếu record nil hoặc không có key
func (r *ResolutionRecord) Field(key string) Field {
	if r == nil {
		return Unresolved()
	}
	return r.Output[key]
}

// ResolvedAddress tổng hợp các stage của một địa chỉ.
// Stage không chạy thì record tương ứng là nil.
type ResolvedAddress struct {
	Raw          string            `json:"raw_address" bson:"raw_address"`
	Province     *ResolutionRecord `json:"clean_province,omitempty" bson:"clean_province,omitempty"`
	District     *ResolutionRecord `json:"clean_district,omitempty" bson:"clean_district,omitempty"`
	Ward         *ResolutionRecord `json:"clean_ward,omitempty" bson:"clean_ward,omitempty"`
	DistrictWard *ResolutionRecord `json:"clean_district_ward,omitempty" bson:"clean_district_ward,omitempty"`
	FullAddress  *ResolutionRecord `json:"clean_full_address,omitempty" bson:"clean_full_address,omitempty"`
}

// ProvinceName tỉnh/thành phố đã kèm tiền tố hành chính
func (ra *ResolvedAddress) ProvinceName() Field {
	return ra.Province.Field(KeyProvince)
}

// DistrictName lấy district từ stage district, hoặc stage district+ward nếu đã fallback
func (ra *ResolvedAddress) DistrictName() Field {
	if ra.DistrictWard != nil {
		return ra.DistrictWard.Field(KeyDistrict)
	}
	return ra.District.Field(KeyDistrict)
}

// WardName lấy ward từ stage ward hoặc stage district+ward
func (ra *ResolvedAddress) WardName() Field {
	if ra.DistrictWard != nil {
		return ra.DistrictWard.Field(KeyWard)
	}
	return ra.Ward.Field(KeyWard)
}

// Answered true nếu mọi stage đã chạy đều nhận được câu trả lời từ model.
// Lần gọi lỗi (mạng, quota, ctx bị huỷ) để lại RawOutput rỗng.
func (ra *ResolvedAddress) Answered() bool {
	if ra == nil || ra.Province == nil {
		return false
	}
	for _, rec := range []*ResolutionRecord{ra.Province, ra.District, ra.Ward, ra.DistrictWard, ra.FullAddress} {
		if rec != nil && (rec.Error != "" || len(rec.RawOutput) == 0) {
			return false
		}
	}
	return true
}

// Summary dạng phẳng của ResolvedAddress, dùng cho CSV/bảng
type Summary struct {
	Raw       string  `json:"raw_address"`
	Province  Field   `json:"province"`
	District  Field   `json:"district"`
	Ward      Field   `json:"ward"`
	ViAddress Field   `json:"vi_address"`
	EnAddress Field   `json:"en_address"`
	Quality   Quality `json:"quality"`
}

// Summarize tạo Summary
func (ra *ResolvedAddress) Summarize() Summary {
	s := Summary{
		Raw:       ra.Raw,
		Province:  ra.ProvinceName(),
		District:  ra.DistrictName(),
		Ward:      ra.WardName(),
		ViAddress: ra.FullAddress.Field(KeyViAddress),
		EnAddress: ra.FullAddress.Field(KeyEnAddress),
		Quality:   QualityFalse,
	}
	if ra.FullAddress != nil {
		s.Quality = ra.FullAddress.Quality
	}
	return s
}

// SummaryHeader tiêu đề cột cho Summary.Row
var SummaryHeader = []string{"raw_address", "province", "district", "ward", "vi_address", "en_address", "quality"}

// Row trả về Summary dạng một dòng bảng
func (s Summary) Row() []string {
	return []string{
		s.Raw,
		s.Province.String(),
		s.District.String(),
		s.Ward.String(),
		s.ViAddress.String(),
		s.EnAddress.String(),
		string(s.Quality),
	}
}
