package token

type Store interface {
	CreateCollection(c *Collection) error
	ReadCollection(creator, name string) (*Collection, error)

	CreateTokenData(d *TokenData) error
	ReadTokenData(id TokenDataID) (*TokenData, error)
	MintTokenData(id TokenDataID, amount uint64) (*TokenData, error)

	TransferToken(from, to string, id TokenID, amount uint64) error
	SplitTokenProperties(owner string, id TokenID, props PropertyMap) (TokenID, error)
	MutateTokenProperties(owner string, id TokenID, props PropertyMap) error
	ReadTokenProperties(id TokenID) (PropertyMap, error)

	ReadBalance(owner string, id TokenID) (uint64, error)
	ListTokens(owner string) ([]*Token, error)
}
