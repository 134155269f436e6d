package store

import (
	"database/sql"
	"fmt"

	"github.com/wibowo/kabarin/internal/model"
)

type EmployeeStore struct {
	db *sql.DB
}

func NewEmployeeStore(db *sql.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

const employeeCols = `id, name, whatsapp_number, is_active, created_at, updated_at`

func scanEmployee(scanner interface{ Scan(...any) error }) (*model.Employee, error) {
	var (
		e         model.Employee
		activeInt int
	)
	err := scanner.Scan(&e.ID, &e.Name, &e.WhatsAppNumber, &activeInt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Active = activeInt != 0
	return &e, nil
}

func (s *EmployeeStore) Create(name, whatsappNumber string) (*model.Employee, error) {
	result, err := s.db.Exec(
		`INSERT INTO employees (name, whatsapp_number) VALUES (?, ?)`,
		name, whatsappNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EmployeeStore) GetByID(id int64) (*model.Employee, error) {
	row := s.db.QueryRow(`SELECT `+employeeCols+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *EmployeeStore) List() ([]model.Employee, error) {
	rows, err := s.db.Query(`SELECT ` + employeeCols + ` FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (s *EmployeeStore) Update(id int64, name, whatsappNumber string, active bool) (*model.Employee, error) {
	_, err := s.db.Exec(
		`UPDATE employees
		 SET name = ?, whatsapp_number = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, whatsappNumber, boolInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return s.GetByID(id)
}

func (s *EmployeeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}
