// internal/tips/dto.go
package tips

type GenerateTipRequest struct {
	Category string `json:"category" validate:"required,max=64"`
}

type GenerateTipResponse struct {
	Tip *Tip `json:"tip"`
}
