package models

type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"correo" yaml:"email"`
}
