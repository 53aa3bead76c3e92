package serpro

import "faceid/cmd/internal/domain/entity"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type personResponse struct {
	NI         string `json:"ni"`
	Nome       string `json:"nome"`
	Nascimento string `json:"nascimento"` // DDMMYYYY
	Situacao   struct {
		Codigo    string `json:"codigo"`
		Descricao string `json:"descricao"`
	} `json:"situacao"`
}

func (p *personResponse) ToDomain() *entity.RegistryPerson {
	status := p.Situacao.Descricao
	if status == "" {
		status = "Indefinida"
	}

	return &entity.RegistryPerson{
		CPF:       p.NI,
		Name:      p.Nome,
		BirthDate: p.Nascimento,
		Status:    status,
	}
}
