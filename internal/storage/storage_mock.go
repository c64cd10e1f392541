package storage

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository
//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name DrakefileRepository
